package numbering

// CreateRuleRequest registers a numbering rule
type CreateRuleRequest struct {
	RuleType  string `json:"ruleType" binding:"required,max=50"`
	RuleName  string `json:"ruleName" binding:"max=100"`
	Pattern   string `json:"pattern" binding:"required,max=100"`
	Prefix    string `json:"prefix" binding:"max=20"`
	Suffix    string `json:"suffix" binding:"max=20"`
	SeqLength int    `json:"seqLength" binding:"omitempty,min=1,max=10"`
	ResetType string `json:"resetType" binding:"omitempty,oneof=DAILY MONTHLY YEARLY NONE"`
	UseYn     string `json:"useYn" binding:"omitempty,yn"`
	Remark    string `json:"remark" binding:"max=500"`
}

// UpdateRuleRequest changes a numbering rule; nil fields are left alone
type UpdateRuleRequest struct {
	RuleName   *string `json:"ruleName" binding:"omitempty,max=100"`
	Pattern    *string `json:"pattern" binding:"omitempty,max=100"`
	Prefix     *string `json:"prefix" binding:"omitempty,max=20"`
	Suffix     *string `json:"suffix" binding:"omitempty,max=20"`
	SeqLength  *int    `json:"seqLength" binding:"omitempty,min=1,max=10"`
	ResetType  *string `json:"resetType" binding:"omitempty,oneof=DAILY MONTHLY YEARLY NONE"`
	CurrentSeq *int    `json:"currentSeq" binding:"omitempty,min=0"`
	UseYn      *string `json:"useYn" binding:"omitempty,yn"`
	Remark     *string `json:"remark" binding:"omitempty,max=500"`
}

// NextNumberResponse is a drawn number
type NextNumberResponse struct {
	RuleType string `json:"ruleType"`
	Number   string `json:"number"`
}

// UIDBatchRequest asks for count UIDs of one kind
type UIDBatchRequest struct {
	Kind  string `json:"kind" binding:"required,oneof=MAT PRD CON"`
	Count int    `json:"count" binding:"required,min=1,max=1000"`
}
