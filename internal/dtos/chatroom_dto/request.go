package chatroom_dto

type CreateChatroomRequest struct {
	Guest string `json:"guest" validate:"required,min=1,max=20"`
}

type PinChatroomRequest struct {
	IsFixed bool `json:"is_fixed"`
}
