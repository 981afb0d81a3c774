package errors

import (
	"fmt"
	"sync"
	"time"
)

// FailureRecord is one reported render or commit failure, retained for the
// development server's error overlay.
type FailureRecord struct {
	Component string
	SlotIndex int
	Message   string
	Timestamp time.Time
}

// Collector accumulates failure reports from the runtime's error sink so
// the development server can display them. It is safe for concurrent use.
type Collector struct {
	records []FailureRecord
	mutex   sync.RWMutex
}

// NewCollector creates a new failure collector.
func NewCollector() *Collector {
	return &Collector{
		records: make([]FailureRecord, 0),
	}
}

// Add records a failure.
func (c *Collector) Add(component string, slotIndex int, err error) {
	if err == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.records = append(c.records, FailureRecord{
		Component: component,
		SlotIndex: slotIndex,
		Message:   err.Error(),
		Timestamp: time.Now(),
	})
}

// Records returns a copy of all recorded failures in arrival order.
func (c *Collector) Records() []FailureRecord {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]FailureRecord, len(c.records))
	copy(result, c.records)
	return result
}

// HasFailures returns true if any failure has been recorded.
func (c *Collector) HasFailures() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.records) > 0
}

// Clear drops all recorded failures. The development server clears the
// collector after a successful commit.
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.records = c.records[:0]
}

// Overlay generates HTML for the development error overlay, empty when
// there is nothing to show.
func (c *Collector) Overlay() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if len(c.records) == 0 {
		return ""
	}

	html := `
<div id="rvreact-error-overlay" style="
	position: fixed;
	top: 0;
	left: 0;
	width: 100%;
	height: 100%;
	background: rgba(0, 0, 0, 0.8);
	color: white;
	font-family: 'Monaco', 'Menlo', monospace;
	font-size: 14px;
	z-index: 9999;
	padding: 20px;
	box-sizing: border-box;
	overflow: auto;
">
	<div style="max-width: 1000px; margin: 0 auto;">
		<div style="display: flex; justify-content: space-between; align-items: center; margin-bottom: 20px;">
			<h2 style="margin: 0; color: #ff6b6b;">Render Errors</h2>
			<button onclick="document.getElementById('rvreact-error-overlay').style.display='none'"
					style="background: none; border: 1px solid #ccc; color: white; padding: 5px 10px; cursor: pointer;">
				Close
			</button>
		</div>
		<div>`

	for _, rec := range c.records {
		location := rec.Component
		if rec.SlotIndex >= 0 {
			location = fmt.Sprintf("%s (slot %d)", rec.Component, rec.SlotIndex)
		}
		html += fmt.Sprintf(`
			<div style="
				background: #2d3748;
				padding: 15px;
				margin-bottom: 15px;
				border-radius: 4px;
				border-left: 4px solid #ff6b6b;
			">
				<div style="display: flex; justify-content: space-between; align-items: center; margin-bottom: 10px;">
					<span style="color: #ff6b6b; font-weight: bold;">%s</span>
					<span style="color: #a0aec0; font-size: 12px;">%s</span>
				</div>
				<div style="color: #e2e8f0;">%s</div>
			</div>
		`, location, rec.Timestamp.Format("15:04:05"), rec.Message)
	}

	html += `
		</div>
	</div>
</div>`

	return html
}
