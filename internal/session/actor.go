package session

// groupActor сериализует всю работу с одной группой: события чата,
// сработавшие таймеры и внешние команды выполняются по очереди.
type groupActor struct {
	groupID int64
	inbox   chan actorMsg
}

type actorMsg struct {
	fn    func() error
	reply chan error
}

func newGroupActor(groupID int64) *groupActor {
	a := &groupActor{
		groupID: groupID,
		inbox:   make(chan actorMsg, 64),
	}
	go func() {
		for m := range a.inbox {
			m.reply <- m.fn()
		}
	}()
	return a
}
