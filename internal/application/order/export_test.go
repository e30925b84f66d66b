package order

import "time"

// Ganchos para tests deterministas.

func (uc *LifecycleUseCase) SetClock(now func() time.Time) { uc.now = now }

func (uc *LifecycleUseCase) SetIDGenerator(newID func() string) { uc.newID = newID }
