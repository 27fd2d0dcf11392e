package eventmodels

type ScreeningCompletedEvent struct {
	Result *ScreeningResult
}

func NewScreeningCompletedEvent(result *ScreeningResult) *ScreeningCompletedEvent {
	return &ScreeningCompletedEvent{Result: result}
}
