package system

// CreateConfigRequest adds a runtime setting
type CreateConfigRequest struct {
	ConfigGroup string `json:"configGroup" binding:"required,max=50"`
	ConfigKey   string `json:"configKey" binding:"required,max=100"`
	ConfigValue string `json:"configValue" binding:"max=1000"`
	ConfigType  string `json:"configType" binding:"omitempty,oneof=STRING NUMBER BOOLEAN SELECT"`
	Label       string `json:"label" binding:"max=200"`
	Description string `json:"description" binding:"max=500"`
	Options     string `json:"options" binding:"max=1000"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    string `json:"isActive" binding:"omitempty,yn"`
}

// UpdateConfigRequest changes a setting; nil fields are left alone
type UpdateConfigRequest struct {
	ConfigValue *string `json:"configValue" binding:"omitempty,max=1000"`
	ConfigType  *string `json:"configType" binding:"omitempty,oneof=STRING NUMBER BOOLEAN SELECT"`
	Label       *string `json:"label" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Options     *string `json:"options" binding:"omitempty,max=1000"`
	SortOrder   *int    `json:"sortOrder"`
	IsActive    *string `json:"isActive" binding:"omitempty,yn"`
}

// BulkUpdateItem is one key/value pair of a bulk update
type BulkUpdateItem struct {
	ConfigKey   string `json:"configKey" binding:"required"`
	ConfigValue string `json:"configValue"`
}

// BulkUpdateRequest sets several values at once
type BulkUpdateRequest struct {
	Items []BulkUpdateItem `json:"items" binding:"required,min=1,dive"`
}

// BulkUpdateResult reports how many values were written
type BulkUpdateResult struct {
	Updated int      `json:"updated"`
	Skipped []string `json:"skipped"`
}
