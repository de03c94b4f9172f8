package dispatch

// maxChunkSize bounds every downstream batch call: SQS send-message-batch
// accepts at most 10 entries, and the event-bus envelope carries at most 10
// leads for the same reason.
const maxChunkSize = 10

// Message is the durable queue message produced per lead. The store writer
// consumes exactly this shape.
type Message struct {
	RequestID string `json:"requestId"`
	Vendor    string `json:"vendor"`
	Lead      any    `json:"lead"`
}

// chunkLeads partitions leads into chunks of at most maxChunkSize, preserving
// order.
func chunkLeads(leads []any) [][]any {
	if len(leads) == 0 {
		return nil
	}
	chunks := make([][]any, 0, (len(leads)+maxChunkSize-1)/maxChunkSize)
	for start := 0; start < len(leads); start += maxChunkSize {
		end := start + maxChunkSize
		if end > len(leads) {
			end = len(leads)
		}
		chunks = append(chunks, leads[start:end])
	}
	return chunks
}
