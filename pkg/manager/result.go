package manager

// Result is the outcome of a registry operation.
type Result int

const (
	TableNotFound Result = iota
	OpenedSuccessfully
	TableAlreadyExists
	CreatedSuccessfully
	CreationFailure
	ClosedSuccessfully
	ClosingFailure
	DroppedSuccessfully
	DroppingFailure
)

var resultNames = [...]string{
	TableNotFound:       "table not found",
	OpenedSuccessfully:  "opened successfully",
	TableAlreadyExists:  "table already exists",
	CreatedSuccessfully: "created successfully",
	CreationFailure:     "creation failure",
	ClosedSuccessfully:  "closed successfully",
	ClosingFailure:      "closing failure",
	DroppedSuccessfully: "dropped successfully",
	DroppingFailure:     "dropping failure",
}

func (r Result) String() string {
	if r < 0 || int(r) >= len(resultNames) {
		return "unknown result"
	}
	return resultNames[r]
}
