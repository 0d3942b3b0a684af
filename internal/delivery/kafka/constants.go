package kafka

const (
	TopicSpaceAnnounced = "space.announced"
	TopicSpaceLifecycle = "space.lifecycle"

	TopicSpaceControl = "space.control"
)

const (
	ControlActionStart = "start"
	ControlActionStop  = "stop"
	ControlActionJoin  = "join"
	ControlActionLeave = "leave"
)
