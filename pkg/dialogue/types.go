package dialogue

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies the user's problem and selects the pedagogical policy
// for prompt construction.
type Category string

const (
	CategoryMathScience      Category = "math_science"
	CategoryCoding           Category = "coding"
	CategoryBusinessPlanning Category = "business_planning"
	CategoryWritingLanguage  Category = "writing_language"
	CategoryDataAnalysis     Category = "data_analysis"
)

// PromptPolicy is the questioning style used for a category in socratic mode.
type PromptPolicy string

const (
	// PolicyTechnical gets hint-graduated, example-driven guidance.
	PolicyTechnical PromptPolicy = "technical"
	// PolicyOpen gets open-ended, perspective-shifting guidance.
	PolicyOpen PromptPolicy = "open"
)

// CategoryPolicies maps every category to its policy. An unknown category is
// invalid input, not a fallback case.
var CategoryPolicies = map[Category]PromptPolicy{
	CategoryMathScience:      PolicyTechnical,
	CategoryCoding:           PolicyTechnical,
	CategoryDataAnalysis:     PolicyTechnical,
	CategoryBusinessPlanning: PolicyOpen,
	CategoryWritingLanguage:  PolicyOpen,
}

func (c Category) Valid() bool {
	_, ok := CategoryPolicies[c]
	return ok
}

// ChatMode selects between the stepwise socratic loop and a one-shot answer.
type ChatMode string

const (
	ModeSocratic ChatMode = "socratic"
	ModeDirect   ChatMode = "direct"
)

func (m ChatMode) Valid() bool {
	return m == ModeSocratic || m == ModeDirect
}

// Language is the output language for model replies.
type Language string

const (
	LanguageKorean  Language = "ko"
	LanguageEnglish Language = "en"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Depth bounds for the session step selector.
const (
	MinDepth = 3
	MaxDepth = 10
)

// UserContext identifies the acting user. It is passed explicitly into every
// engine operation instead of being read from ambient request state.
type UserContext struct {
	UserID   uuid.UUID
	Language Language
}

// Attachment is one uploaded file accompanying a user turn. Data is the raw
// bytes to inline into the model call; URL is the stored content reference.
type Attachment struct {
	Name      string
	MediaType string
	Size      int64
	URL       string
	Data      []byte
}

// Message is one turn of a session.
type Message struct {
	ID        uuid.UUID
	Role      string
	Content   string
	Files     []Attachment // nil when there are none, never an empty slice
	CreatedAt time.Time
}

// Session is one guided-dialogue instance.
type Session struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Title          string
	Category       Category
	Problem        string
	Attempts       string
	Goal           string
	Depth          int
	CurrentStep    int
	ChatMode       ChatMode
	IsResolved     bool
	FinalAnswer    string
	HasAttachments bool
	// NeedsVerification records that the first assistant reply asked the
	// user to confirm the problem read from the attachments. It goes inert
	// once CurrentStep moves past 0, so it is never cleared.
	NeedsVerification bool
	Messages          []Message
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CreateForm is the session creation input from the presentation layer.
type CreateForm struct {
	Category Category
	Problem  string
	Attempts string
	Goal     string
	Files    []Attachment
}

// State is the derived position of a session in its lifecycle.
type State string

const (
	StateNeedsVerification State = "needs_verification"
	StateActive            State = "active"
	StateEarlyComplete     State = "early_complete"
	StateDepthExhausted    State = "depth_exhausted"
	StateResolved          State = "resolved"
)
