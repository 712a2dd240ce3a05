package shift

const (
	KeySavedShifts    = "savedShifts"
	KeySavedExpenses  = "savedExpenses"
	KeyShiftStartTime = "shiftStartTime"
	KeyCurrentShift   = "currentShift"

	quarantineInfix = ".corrupt."
)

const (
	EventShiftsChanged  EventType = "ShiftsChanged"
	EventExpenseUpdated EventType = "ExpenseUpdated"
	EventShiftStarted   EventType = "ShiftStarted"
)

const (
	SortNone     SortOrder = "none"
	SortDateAsc  SortOrder = "dateAsc"
	SortDateDesc SortOrder = "dateDesc"
)
