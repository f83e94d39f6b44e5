package models

type Mode string

const (
	ModeClarify   Mode = "clarify"
	ModeRecommend Mode = "recommend"
	ModeCompare   Mode = "compare"
	ModeFail      Mode = "fail"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type ClarifyingQuestion struct {
	Topic   string   `json:"topic"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type Recommendation struct {
	ProductID    string       `json:"product_id"`
	Title        string       `json:"title"`
	Price        *Price       `json:"price"`
	Availability Availability `json:"availability"`
	WhyItFits    []string     `json:"why_it_fits"`
	Tradeoffs    []string     `json:"tradeoffs"`
	Confidence   Confidence   `json:"confidence"`
	Proof        []string     `json:"proof"`
}

type BestFor struct {
	A []string `json:"a"`
	B []string `json:"b"`
}

type Comparison struct {
	ProductA    string   `json:"product_a"`
	ProductB    string   `json:"product_b"`
	Differences []string `json:"differences"`
	BestFor     BestFor  `json:"best_for"`
}

// Response is the single result of a turn. Every field is always serialized
// so consumers never branch on key existence.
type Response struct {
	Mode               Mode                `json:"mode"`
	Intent             IntentState         `json:"intent"`
	ClarifyingQuestion *ClarifyingQuestion `json:"clarifying_question"`
	Recommendations    []Recommendation    `json:"recommendations"`
	Comparison         *Comparison         `json:"comparison"`
	Errors             []string            `json:"errors"`
	Message            string              `json:"message"`
	Confidence         *Confidence         `json:"confidence"`
	TurnID             string              `json:"turn_id"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TurnRecord is one prior message in the conversation.
type TurnRecord struct {
	Role          Role   `json:"role"`
	Text          string `json:"text"`
	Mode          Mode   `json:"mode,omitempty"`
	QuestionTopic string `json:"question_topic,omitempty"`
	ProductCount  int    `json:"product_count,omitempty"`
}

// QueryDescriptor describes a catalog lookup.
type QueryDescriptor struct {
	Text     string   `json:"text"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	Category string   `json:"category,omitempty"`
	IDs      []string `json:"ids,omitempty"`
}
