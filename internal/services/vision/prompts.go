package vision

// SystemPrompt instructs the model to answer with a bare JSON object.
const SystemPrompt = `You are an OCR+reasoning parser for Instagram stats screenshots.
Return JSON with keys: "username" (lowercase, no "@"), "followers" (as displayed, may include k/m), "confidence" (0..1). If not confident, set confidence <= 0.6. Return ONLY JSON.`

// UserPrompt accompanies the image in the user message.
const UserPrompt = "Extract username and total followers. Output only JSON."
