// Package recurring implements the recurring-task worker. When a recurring
// task is completed it stores the task's next occurrence, re-arms the
// occurrence's reminder and announces the new task on the bus.
package recurring
