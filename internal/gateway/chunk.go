package gateway

import "event-server/shared/models"

// chunkMessages режет messages на последовательные батчи не длиннее size.
// Порядок сохраняется, так что i-е сообщение батча k - это messages[k*size+i].
func chunkMessages(messages []models.PushMessage, size int) [][]models.PushMessage {
	if len(messages) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(messages)
	}
	chunks := make([][]models.PushMessage, 0, (len(messages)+size-1)/size)
	for start := 0; start < len(messages); start += size {
		end := min(start+size, len(messages))
		chunks = append(chunks, messages[start:end:end])
	}
	return chunks
}

// effectiveBatchSize ограничивает настроенный размер батча лимитом провайдера.
func effectiveBatchSize(configured, providerMax int) int {
	if configured <= 0 || configured > providerMax {
		return providerMax
	}
	return configured
}
