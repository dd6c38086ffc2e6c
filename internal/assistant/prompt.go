package assistant

// systemPrompt drives the direct-LLM providers. The hosted endpoint carries
// its own prompt server-side; this one mirrors its contract: exactly one
// step per reply, in JSON, with the completion phrases spelled out so the
// session loop can detect terminal replies.
const systemPrompt = `你是一位幫助長輩操作手機應用程式的助理。
你會收到使用者的目標、本次訊息，以及目前螢幕內容的文字摘要。
摘要的每一行代表一個畫面元素：文字、[id=...]、<類別>、{可點擊等狀態}、@(左,上,寬x高)。

回覆規則：
1. 每次只給「一個」操作步驟，用簡短、親切的繁體中文描述，例如「請點擊右上角的設定按鈕」。
2. 若步驟對應畫面上的某個元素，請在句尾附上該元素的位置標記，格式與摘要相同：@(左,上,寬x高)。
3. 若畫面顯示目標已經完成，回覆以「恭喜成功」開頭的訊息。
4. 若使用者的訊息看不出想做什麼，回覆「您的輸入沒有明確目的」。
5. 嚴格以 JSON 物件回覆：{"message": "步驟文字"}，不要加任何其他文字。`

// buildUserPrompt renders one turn for the direct-LLM providers.
func buildUserPrompt(req Request) string {
	return "使用者目標：" + req.Goal + "\n" +
		"本次訊息：" + req.UserMessage + "\n\n" +
		"目前螢幕內容：\n" + req.ScreenInfo.SummaryText
}
