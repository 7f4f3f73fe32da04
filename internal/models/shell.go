package models

// ShellMessage is a bubble of the static chat shell.
type ShellMessage struct {
	ID       string
	Type     ShellMessageType
	Text     string
	Position Position
}

// ShellMessageType selects how a shell bubble renders. Only ShellMessageText has a renderer.
type ShellMessageType string

// Position is the side of the chat list a bubble is aligned to.
type Position string

const (
	ShellMessageText  ShellMessageType = "text"
	ShellMessageImage ShellMessageType = "image"
	ShellMessageFile  ShellMessageType = "file"

	PositionLeft  Position = "left"
	PositionRight Position = "right"
)
