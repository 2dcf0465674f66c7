// Package artifact defines the pipeline output: the generated message text
// tagged with the stage that produced it.
package artifact

// Provenance records which stage produced an artifact's text. The tag is
// always the last stage that successfully produced it; fallback output is
// never presented as model-generated.
type Provenance string

const (
	// ModelGenerated is the primary model pass, accepted by the extractor.
	ModelGenerated Provenance = "model-generated"
	// ModelValidated is the audited/rewritten output of the validation pass.
	ModelValidated Provenance = "model-validated"
	// HeuristicFallback is the deterministic classifier, used when generation
	// or extraction failed.
	HeuristicFallback Provenance = "heuristic-fallback"
)

// Artifact is the final message or description. Immutable once created;
// validation produces a new Artifact so the pre-validation text remains a
// recovery point.
type Artifact struct {
	Text       string
	Provenance Provenance
}

// ValidationReport carries the validation pass outcome. When Parsed is false
// the pass failed (missing delimiters, blank correction, or backend error)
// and Raw holds the unparsed model response for debugging.
type ValidationReport struct {
	Findings []string
	Parsed   bool
	Raw      string
}
