package earnings

const (
	DefaultWageRate           = 15.0
	DefaultOvertimeThreshold  = 8.0
	DefaultOvertimeMultiplier = 1.5
	DefaultWithholdingPercent = 14.0
)
