package domain

// Candidate is a chunk (or slide-file summary) decorated at query time
// with its retrieval scores.
type Candidate struct {
	// Chunk is the underlying retrievable unit. For file-level candidates
	// the ID is the file name and Text is the summary.
	Chunk Chunk

	// SourceGroup tags which retrieval pool produced this candidate.
	SourceGroup SourceGroup

	// LexicalScore is the normalized lexical-overlap score in [0,1].
	LexicalScore float64

	// SemanticScore is the normalized vector-similarity score in [0,1].
	SemanticScore float64

	// Score is the combined hybrid score.
	Score float64
}

// ContextSelection is an ordered list of candidates chosen under a
// character budget, plus the assembled context text.
type ContextSelection struct {
	// Selected are the admitted candidates, in presentation order.
	Selected []Candidate

	// UsedChars is the total estimated character cost consumed.
	UsedChars int

	// Text is the assembled, group-titled context block.
	Text string
}
