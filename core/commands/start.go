package commands

import (
	"context"

	"github.com/jdelaire/bingobot/core/menu"
)

// StartCommand greets the user with the main menu. It is stateless; repeated
// invocations resend the menu.
type StartCommand struct {
	Links menu.Links
}

func (s *StartCommand) Name() string        { return "start" }
func (s *StartCommand) Description() string { return "Show the main menu" }

func (s *StartCommand) Execute(_ context.Context, _ Request) (Reply, error) {
	return Reply{
		Text:     menu.WelcomeText,
		Keyboard: menu.MainMenu(s.Links),
	}, nil
}
