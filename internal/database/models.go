package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Case is a brief on the chamber's file. CaseID is free text and not unique.
type Case struct {
	gorm.Model
	CaseID        string  `json:"case_id" gorm:"index"`
	Petitioner    string  `json:"petitioner"`
	Respondent    string  `json:"respondent"`
	Court         string  `json:"court"`
	SectionBNS    string  `json:"section_bns" gorm:"column:section_bns"`
	StrategyNotes string  `json:"strategy_notes" gorm:"type:text"`
	TotalFee      float64 `json:"total_fee"`
	PaidFee       float64 `json:"paid_fee"`
}

// Outstanding returns the unpaid balance on the brief
func (c Case) Outstanding() float64 {
	return c.TotalFee - c.PaidFee
}

// Hearing is an entry on the board. CaseID is not checked against cases.
type Hearing struct {
	gorm.Model
	CaseID      string    `json:"case_id" gorm:"index"`
	HearingDate time.Time `json:"hearing_date"`
	Purpose     string    `json:"purpose"`
}

// Research is an entry in the chamber's research log
type Research struct {
	gorm.Model
	Title    string `json:"title"`
	Citation string `json:"citation"`
	Summary  string `json:"summary" gorm:"type:text"`
}

// Document is an uploaded file attached to a brief
type Document struct {
	ID          string    `json:"id" gorm:"type:uuid;primarykey"`
	CreatedAt   time.Time `json:"created_at"`
	CaseID      string    `json:"case_id" gorm:"index"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StoredPath  string    `json:"-"`
}

// BeforeCreate assigns a UUID when none is set
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// LookupLog records each e-Courts CNR lookup attempt
type LookupLog struct {
	gorm.Model
	CNR          string    `json:"cnr" gorm:"index"`
	RawResponse  string    `json:"raw_response" gorm:"type:text"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message"`
	QueryTime    time.Time `json:"query_time"`
	IPAddress    string    `json:"ip_address"`
}

// CourtStatus is the case status parsed from an e-Courts lookup
type CourtStatus struct {
	gorm.Model
	LookupLogID  uint      `json:"lookup_log_id"`
	CNR          string    `json:"cnr" gorm:"index"`
	CaseType     string    `json:"case_type"`
	FilingNumber string    `json:"filing_number"`
	FilingDate   time.Time `json:"filing_date"`
	NextHearing  time.Time `json:"next_hearing"`
	Stage        string    `json:"stage"`
	Judge        string    `json:"judge"`
	CourtComplex string    `json:"court_complex"`
	Petitioner   string    `json:"petitioner"`
	Respondent   string    `json:"respondent"`
}

func (Case) TableName() string {
	return "cases"
}

func (Hearing) TableName() string {
	return "hearings"
}

func (Research) TableName() string {
	return "research"
}

func (Document) TableName() string {
	return "documents"
}

func (LookupLog) TableName() string {
	return "lookup_logs"
}

func (CourtStatus) TableName() string {
	return "court_statuses"
}
