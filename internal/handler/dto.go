package handler

import (
	"time"

	"event-server/shared/models"

	"github.com/google/uuid"
)

// eventRequest - тело POST/PUT /events. Имена полей совпадают с мобильным клиентом.
type eventRequest struct {
	Titre                string               `json:"titre" binding:"required"`
	Description          string               `json:"description"`
	Content              string               `json:"content"`
	Image                string               `json:"image"`
	Image2               string               `json:"image2"`
	Video                string               `json:"video"`
	Category             models.EventCategory `json:"category" binding:"required"`
	NombreDeParticipants int                  `json:"nombreDeParticipants" binding:"min=0"`
	Location             string               `json:"location"`
	Date                 time.Time            `json:"date" binding:"required"`
}

func (r eventRequest) toInput() models.EventInput {
	return models.EventInput{
		Title:       r.Titre,
		Description: r.Description,
		Content:     r.Content,
		Image:       r.Image,
		Image2:      r.Image2,
		Video:       r.Video,
		Category:    r.Category,
		Capacity:    r.NombreDeParticipants,
		Location:    r.Location,
		Date:        r.Date,
	}
}

type registerRequest struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
}

type createUserRequest struct {
	Fullname  string   `json:"fullname" binding:"required"`
	Email     string   `json:"email" binding:"required"`
	Phone     string   `json:"phone"`
	Interests []string `json:"interests"`
}

func (r createUserRequest) toInput() models.CreateUserInput {
	return models.CreateUserInput{
		Fullname:  r.Fullname,
		Email:     r.Email,
		Phone:     r.Phone,
		Interests: r.Interests,
	}
}

type savePushTokenRequest struct {
	UserID        uuid.UUID `json:"userId" binding:"required"`
	ExpoPushToken string    `json:"expoPushToken" binding:"required"`
}

// listResponse оборачивает списки, чтобы пустой результат отдавался как [] с total 0.
type listResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

func newListResponse[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Data: items, Total: len(items)}
}
