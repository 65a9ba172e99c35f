package sim

// An Engine is a unit that keeps the discrete event simulation run.
type Engine interface {
	TimeTeller
	EventScheduler

	// Run will process all the events until the simulation finishes.
	Run() error
}
