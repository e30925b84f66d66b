package inventory

import "time"

func (uc *StockUseCase) SetClock(now func() time.Time) { uc.now = now }
