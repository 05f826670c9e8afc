package models

// Alert delivery defaults
const (
	DeliveryStatusUnknown = "unknown"
	AlertTypeManual       = "manual"
)

// Connection test outcomes
const (
	ConnectionSuccess = "success"
	ConnectionError   = "error"
)

// AlertDelivery is the metadata the alert agent reports after posting a
// selection to the messaging channel.
type AlertDelivery struct {
	DeliveryStatus string `json:"delivery_status"`
	ChannelName    string `json:"channel_name"`
	MessagePreview string `json:"message_preview"`
	StocksIncluded int    `json:"stocks_included"`
	AlertType      string `json:"alert_type"`
	Timestamp      string `json:"timestamp"`
}

// DecodeAlertDelivery defaults every missing field. A payload that is not an
// object is treated as empty, so the result carries only defaults.
func DecodeAlertDelivery(payload any, selected int) AlertDelivery {
	m, err := AsObject(payload)
	if err != nil {
		m = map[string]any{}
	}
	return AlertDelivery{
		DeliveryStatus: StringField(m, "delivery_status", DeliveryStatusUnknown),
		ChannelName:    StringField(m, "channel_name", ""),
		MessagePreview: StringField(m, "message_preview", ""),
		StocksIncluded: intField(m, "stocks_included", selected),
		AlertType:      StringField(m, "alert_type", AlertTypeManual),
		Timestamp:      StringField(m, "timestamp", ""),
	}
}
