package models

// NotificationTemplate stores rendered content for a (type, method) pair.
// Placeholders of the form {name} are substituted from a caller-supplied
// context at render time. At most one active template should exist per key;
// when duplicates slip in, lookups take the newest active row.
type NotificationTemplate struct {
	BaseModel

	Type   string         `gorm:"type:varchar(64);index:idx_template_key;not null" json:"notification_type"`
	Method DeliveryMethod `gorm:"type:varchar(16);index:idx_template_key;not null" json:"delivery_method"`

	TitleTemplate   string `gorm:"type:varchar(255);not null" json:"title_template"`
	MessageTemplate string `gorm:"type:text" json:"message_template"`

	IsActive bool `gorm:"not null;default:true;index" json:"is_active"`
}
