package httpapi

type RunResponse struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg"`
}
