package usecase

import (
	"strings"
	"unicode"
)

const greetingAnswer = "Hi! I'm the NexaBuild assistant. Ask me about signing in, creating a project, " +
	"drawing floor plans, the 3D view, placing furniture, saving your work, or fixing an error."

const genericAnswer = "I can help with NexaBuild basics:\n" +
	"- Account: signing up and logging in\n" +
	"- Projects: creating and opening a project\n" +
	"- Floor plan: walls, curves, rooms, outdoor areas and roads\n" +
	"- 3D view: moving the camera around your design\n" +
	"- Furniture: adding, moving and rotating items\n" +
	"- Saving: keeping your progress\n" +
	"Tell me which of these you're working on and what you tried so far."

type ruleGroup struct {
	name     string
	keywords []string
	answer   string
}

// ruleGroups are evaluated in order; the first group with a matching keyword
// answers.
var ruleGroups = []ruleGroup{
	{
		name:     "account",
		keywords: []string{"login", "log in", "logging in", "logged in", "sign in", "signing in", "signin", "signup", "sign up", "signing up", "register", "password", "account"},
		answer: "To get into your account:\n" +
			"1. Open the Login page from the top navigation.\n" +
			"2. New here? Choose Sign up, enter your name, email and a password of at least 8 characters.\n" +
			"3. Already registered? Enter your email and password and press Login.\n" +
			"4. If login fails, check for typos and caps lock, then try again.\n" +
			"You stay signed in until you log out or your session expires.",
	},
	{
		name:     "project",
		keywords: []string{"new project", "create project", "create a project", "start a project", "new design", "start a design", "create a plan", "new plan"},
		answer: "To create a project:\n" +
			"1. Sign in and open your Dashboard.\n" +
			"2. Click New Project and give it a name.\n" +
			"3. Pick a room or start from an empty floor plan.\n" +
			"4. Your project appears in the list and opens in the editor.\n" +
			"You can reopen it any time from the Dashboard.",
	},
	{
		name:     "floorplan",
		keywords: []string{"floor plan", "floorplan", "wall", "walls", "curve", "curves", "curved", "room", "rooms", "outdoor", "road", "roads", "draw", "drawing"},
		answer: "To draw your floor plan:\n" +
			"1. Open your project and switch to the 2D floor plan editor.\n" +
			"2. Select the Wall tool, click to start a wall and click again to end it.\n" +
			"3. Use the Curve tool for rounded walls and the Room tool to outline a closed room.\n" +
			"4. Outdoor and Road tools add terrain around the building.\n" +
			"5. Press Esc to stop drawing; select a wall to move or delete it.",
	},
	{
		name:     "camera",
		keywords: []string{"3d", "camera", "orbit", "rotate view", "zoom", "zooming", "pan the view"},
		answer: "To explore the 3D view:\n" +
			"1. Click the 3D button in the editor toolbar.\n" +
			"2. Left-drag to orbit around the model.\n" +
			"3. Scroll to zoom in and out.\n" +
			"4. Right-drag (or Shift + drag) to pan.\n" +
			"5. Use Reset View if you lose your bearings.",
	},
	{
		name:     "furniture",
		keywords: []string{"furniture", "sofa", "sofas", "couch", "chair", "chairs", "table", "tables", "bed", "beds", "desk", "desks", "cabinet", "cabinets", "place item"},
		answer: "To add furniture:\n" +
			"1. Open the Furniture panel in the editor.\n" +
			"2. Pick a category and drag an item into a room.\n" +
			"3. Drag the item to move it; use the rotate handle to turn it.\n" +
			"4. Select an item and press Delete to remove it.\n" +
			"Items snap to walls when you drag them close.",
	},
	{
		name:     "save",
		keywords: []string{"save", "saved", "saving", "progress", "autosave", "lost my", "undo"},
		answer: "To keep your work:\n" +
			"1. Click Save in the editor toolbar after making changes.\n" +
			"2. Make sure you are logged in; saving needs an account.\n" +
			"3. Your progress is stored per project, so reopen the same project to continue.\n" +
			"4. If saving fails, check your connection and try again before closing the tab.",
	},
	{
		name:     "troubleshooting",
		keywords: []string{"error", "errors", "bug", "bugs", "crash", "crashes", "crashed", "crashing", "broken", "not working", "doesn't work", "does not work", "fail", "fails", "failed", "failing", "problem", "issue", "stuck"},
		answer: "Let's troubleshoot:\n" +
			"1. Refresh the page and try the action again.\n" +
			"2. Log out and back in if the error mentions your session or authorization.\n" +
			"3. Check your internet connection; saving and loading need the server.\n" +
			"4. Try another browser or disable extensions that block scripts.\n" +
			"If it keeps happening, tell me the exact error message and what you clicked.",
	},
}

// Answer returns the canned reply for message. It is pure: the same text
// always selects the same branch.
func Answer(message string) string {
	if strings.TrimSpace(message) == "" {
		return greetingAnswer
	}
	text := padded(words(message))
	for _, g := range ruleGroups {
		for _, kw := range g.keywords {
			if strings.Contains(text, padded(words(kw))) {
				return g.answer
			}
		}
	}
	return genericAnswer
}

// words lower-cases s and splits it on runs of anything that is not a
// letter or digit.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// padded joins tokens so that a keyword only matches on word boundaries.
func padded(tokens []string) string {
	return " " + strings.Join(tokens, " ") + " "
}
