package diag

// Stage identifies the compilation stage a diagnostic came from.
type Stage uint8

const (
	StageUnknown Stage = iota
	StagePreprocess
	StageParse
	StageCheck
	StageGenerate
)

func (s Stage) String() string {
	switch s {
	case StagePreprocess:
		return "preprocess"
	case StageParse:
		return "parse"
	case StageCheck:
		return "check"
	case StageGenerate:
		return "generate"
	}
	return "unknown"
}
