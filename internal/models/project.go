package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Project struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Title     string    `json:"title" gorm:"not null"`
	ImageURL  string    `json:"imageUrl" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`

	SubTasks []SubTask `json:"subTasks" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

type SubTask struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	Completed bool      `json:"completed" gorm:"not null;default:false"`
	ProjectID uuid.UUID `json:"projectId" gorm:"type:uuid;not null;index"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	return assignID(&p.ID)
}

func (s *SubTask) BeforeCreate(tx *gorm.DB) error {
	return assignID(&s.ID)
}

func assignID(id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}
	generated, err := uuid.NewV4()
	if err != nil {
		return err
	}
	*id = generated
	return nil
}

// Clone returns a deep copy so callers can keep snapshots of a project.
func (p Project) Clone() Project {
	out := p
	if p.SubTasks != nil {
		out.SubTasks = make([]SubTask, len(p.SubTasks))
		copy(out.SubTasks, p.SubTasks)
	}
	return out
}

// CompletedCount reports how many sub-tasks are done.
func (p Project) CompletedCount() int {
	n := 0
	for _, st := range p.SubTasks {
		if st.Completed {
			n++
		}
	}
	return n
}
