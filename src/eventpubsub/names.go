package eventpubsub

const (
	ScreeningCompletedEvent = "ScreeningCompletedEvent"
)
