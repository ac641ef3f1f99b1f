package tui

// Export functions for testing
var (
	BuildTree   = buildTree
	FlattenTree = flattenTree
)

// MaxOffset exposes the private maxOffset method for testing.
func (v *Vterm) MaxOffset() int {
	return v.maxOffset()
}

// GetSelectedTask exposes the private getSelectedTask method for testing.
func (m *Model) GetSelectedTask() *TaskNode {
	return m.getSelectedTask()
}

// UpdateActiveView exposes the private updateActiveView method for testing.
func (m *Model) UpdateActiveView() {
	m.updateActiveView()
}

// EnsureVisible exposes the private ensureVisible method for testing.
func (m *Model) EnsureVisible() {
	m.ensureVisible()
}
