package converters

const (
	ErrMsgEmptyParam    = "Parameter cannot be empty."
	ErrMsgBadTimeFormat = "Bad time format, expected HH:MM or HHMM"
	ErrMsgBadDateFormat = "Bad date format, expected YYYYMMDD or YYYY-MM-DD"
	ErrMsgBadUUID       = "Bad UUID, expected 36 character or 16 byte form"
	ErrMsgOutOfRange    = "Value is outside the range of the target type."
)

const (
	dateLayout        = "20060102"
	dateLayoutDashed  = "2006-01-02"
	timeLayout        = "1504"
	timeLayoutColoned = "15:04"
)
