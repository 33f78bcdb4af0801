package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the HTTP API to manage background crawl
// processing: queue management, worker pool control, and on-demand triggering.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	TriggerSource(name string) (TaskInterface, error)
}
