package menu

// Callback tags emitted by the main menu. Feature handlers may extend a tag
// with a suffix (e.g. "start_game_confirm"); routing matches by prefix.
const (
	TagStartGame   = "start_game"
	TagLeaderboard = "leaderboard"
	TagSettings    = "settings"
	TagDailyQuests = "daily_quests"
	TagShop        = "shop"
)

const (
	DefaultSupportURL = "https://t.me/your_support_group"
	DefaultUpdatesURL = "https://t.me/your_updates_channel"
)

// WelcomeText accompanies the main menu on /start.
const WelcomeText = "Welcome to the Bingo Bot! Choose an option:"

// Button is a single inline option. Exactly one of Tag or URL is set.
type Button struct {
	Label string
	Tag   string
	URL   string
}

// Keyboard is an ordered list of button rows.
type Keyboard [][]Button

// Links holds the static external links shown at the bottom of the menu.
type Links struct {
	SupportURL string
	UpdatesURL string
}

// TagButton returns a button that routes back into callback dispatch.
func TagButton(label, tag string) Button {
	return Button{Label: label, Tag: tag}
}

// URLButton returns a button that opens an external link.
func URLButton(label, url string) Button {
	return Button{Label: label, URL: url}
}

// Single returns a keyboard with one button per row.
func Single(buttons ...Button) Keyboard {
	kb := make(Keyboard, 0, len(buttons))
	for _, b := range buttons {
		kb = append(kb, []Button{b})
	}
	return kb
}

// MainMenu builds the main menu: five tag-routed actions followed by the
// support and updates links. Empty links fall back to the defaults.
func MainMenu(links Links) Keyboard {
	support := links.SupportURL
	if support == "" {
		support = DefaultSupportURL
	}
	updates := links.UpdatesURL
	if updates == "" {
		updates = DefaultUpdatesURL
	}

	return Single(
		TagButton("🎮 Start Game", TagStartGame),
		TagButton("🏆 Leaderboard", TagLeaderboard),
		TagButton("⚙️ Settings", TagSettings),
		TagButton("🎯 Daily Quests", TagDailyQuests),
		TagButton("🪙 Shop", TagShop),
		URLButton("📣 Support Group", support),
		URLButton("🔔 Updates Channel", updates),
	)
}
