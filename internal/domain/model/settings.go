package model

// SettingType is the declared kind of a platform setting.
type SettingType string

const (
	SettingString  SettingType = "STRING"
	SettingNumber  SettingType = "NUMBER"
	SettingBoolean SettingType = "BOOLEAN"
)

type PlatformSetting struct {
	Key   string
	Value string
	Type  SettingType
}

// Well-known setting keys and their documented defaults.
const (
	SettingPlatformFeePercentage = "platform_fee_percentage"
	SettingRefundDaysLimit       = "refund_days_limit"
	SettingMinimumPayout         = "minimum_payout"

	DefaultPlatformFeePercentage = "10"
	DefaultMinimumPayout         = "50"
)
