package dynamo

// View is a named, filtered subset of a reaction network.
type View interface {
	Label() string
}

// Composition is an opaque snapshot of an engine's abundance state.
type Composition struct {
	Abundances []float64
	Changes    []float64
}

// Abundance describes one species of the current composition.
type Abundance struct {
	Name         string
	Z, A         int
	Y            float64
	MassFraction float64
}

// Evolver advances the composition in place.
type Evolver interface {
	Evolve(view View, dt float64) error
	EvolutionView() View
}

// EntropySource computes the entropy per nucleon of a zone's composition
// at the zone's current temperature and density.
type EntropySource interface {
	Zone() *Zone
	Entropy() (float64, error)
}

// StepAdvisor recommends a step size from the last composition change.
type StepAdvisor interface {
	RecommendedStep(prevDt, regT, regY, yMin float64) float64
}

// Engine is the reaction-network engine contract.
type Engine interface {
	Evolver
	EntropySource
	StepAdvisor
	EntropyGenerationRate(view View) (float64, error)
	Prune(threshold float64)
	Save() Composition
	Restore(c Composition)
	Abundances() []Abundance
}

// Checkpoint is one output record of the zone at an accepted step.
type Checkpoint struct {
	Label      string
	Step       int
	Time       float64
	Dtime      float64
	T9         float64
	Rho        float64
	Entropy    float64
	X0         float64
	X1         float64
	Properties map[string]string
	Species    []Abundance
}

// CheckpointWriter collects checkpoints and persists them on Flush.
type CheckpointWriter interface {
	Record(c Checkpoint) error
	Flush() error
}
