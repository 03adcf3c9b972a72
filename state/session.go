package state

// Session 投票会话：投票人标识与最近一次回执
type Session struct {
	VoterIdentifier string `json:"voter_identifier"`
	Receipt         string `json:"receipt"`
}

// SetVoterIdentifier 覆盖投票人标识，不做格式校验
func (s Session) SetVoterIdentifier(value string) Session {
	s.VoterIdentifier = value
	return s
}

// RecordReceipt 覆盖当前回执
func (s Session) RecordReceipt(token string) Session {
	s.Receipt = token
	return s
}

// ClearReceipt 清除当前回执
func (s Session) ClearReceipt() Session {
	s.Receipt = ""
	return s
}

// CanVote 投票人标识非空时才允许提交投票
func (s Session) CanVote() bool {
	return s.VoterIdentifier != ""
}
