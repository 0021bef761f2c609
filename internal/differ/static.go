package differ

import "context"

// Static returns fixed lines regardless of input, for tests and dry runs.
type Static struct {
	Lines []string
	Err   error
}

func (s *Static) Name() string {
	return "static"
}

func (s *Static) Diff(ctx context.Context, oldPath, newPath string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]string(nil), s.Lines...), nil
}
