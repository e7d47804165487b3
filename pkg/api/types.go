package api

// ChatRequest is the user input accepted by both chat endpoints.
//
// Stream is decided by the route the request arrived on and is never read
// from the request body.
type ChatRequest struct {
	Text   string `json:"text"`
	Stream bool   `json:"-"`
}

// ChatReply is the only JSON body returned by the non-streaming endpoint,
// on success and on every failure path.
type ChatReply struct {
	Reply string `json:"reply"`
}

// Canned replies shown to the user. They are part of the product surface
// (the front-end renders them verbatim), so they stay in Japanese.
const (
	ReplyEmptyInput         = "入力が空です。"
	ReplyNotConfigured      = "Databricks未設定: .env を確認してください。"
	ReplyGenerationFailed   = "すみません、回答の生成に失敗しました。もう一度お試しください。"
	ReplyConnectionUnstable = "すみません、現在接続が不安定です。少し待ってから再度お試しください。"
	ReplyTooLong            = "入力が長すぎます。"
)
