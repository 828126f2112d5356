package hotcache

// Routing-key namespaces. Chat and presence never share a key so a room
// wipe can never clobber a host's status slot.
const (
	chatPrefix   = "chat_"
	statusPrefix = "status_"
	seqSuffix    = ":seq"
)

func ChatKey(roomName string) string {
	return chatPrefix + roomName
}

func StatusKey(hostID string) string {
	return statusPrefix + hostID
}
