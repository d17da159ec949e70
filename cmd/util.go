package cmd

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/mattn/go-isatty"
)

// NOTE: https://github.com/charmbracelet/bubbletea/blob/main/examples/progress-download/
var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Render

var errCanceled = errors.New("download canceled")

type downloadModel struct {
	progress progress.Model
	cancel   context.CancelFunc
	err      error
}

type progressMsg float64
type progressErrMsg struct{ err error }

type progressWriter struct {
	total      int64
	downloaded int64
	onProgress func(float64)
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.downloaded += int64(len(p))
	if pw.total > 0 && pw.onProgress != nil {
		pw.onProgress(float64(pw.downloaded) / float64(pw.total))
	}
	return len(p), nil
}

func finalPause() tea.Cmd {
	return tea.Tick(time.Millisecond*750, func(_ time.Time) tea.Msg {
		return nil
	})
}

func (m downloadModel) Init() tea.Cmd {
	return nil
}

func (m downloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.err = errCanceled
			m.cancel()
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.progress.Width = min(msg.Width-2*2-4, 80)
		return m, nil

	case progressErrMsg:
		m.err = msg.err
		return m, tea.Quit

	case progressMsg:
		var cmds []tea.Cmd

		if msg >= 1.0 {
			cmds = append(cmds, tea.Sequence(finalPause(), tea.Quit))
		}

		cmds = append(cmds, m.progress.SetPercent(float64(msg)))
		return m, tea.Batch(cmds...)

	// FrameMsg is sent when the progress bar wants to animate itself
	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	default:
		return m, nil
	}
}

func (m downloadModel) View() string {
	if m.err != nil {
		return "Error downloading: " + m.err.Error() + "\n"
	}

	pad := strings.Repeat(" ", 2)
	return "\n" +
		pad + m.progress.View() + "\n\n" +
		pad + helpStyle("Press q to cancel")
}

// downloadWithProgress copies r into w. On a terminal it draws a progress
// bar sized by total; otherwise it copies silently.
func downloadWithProgress(ctx context.Context, r io.Reader, total int64, w io.Writer) error {
	if !isatty.IsTerminal(os.Stderr.Fd()) || total <= 0 {
		_, err := io.Copy(w, r)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := downloadModel{
		progress: progress.New(progress.WithDefaultGradient()),
		cancel:   cancel,
	}
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithContext(ctx))

	pw := &progressWriter{
		total: total,
		onProgress: func(ratio float64) {
			p.Send(progressMsg(ratio))
		},
	}
	done := make(chan error, 1)
	go func() {
		// TeeReader calls pw.Write() each time a chunk is read
		_, err := io.Copy(w, io.TeeReader(&ctxReader{ctx: ctx, r: r}, pw))
		if err != nil {
			p.Send(progressErrMsg{err})
		} else {
			p.Send(progressMsg(1))
		}
		done <- err
	}()

	final, runErr := p.Run()
	cancel()
	copyErr := <-done
	if fm, ok := final.(downloadModel); ok && fm.err != nil {
		return fm.err
	}
	if copyErr != nil {
		return copyErr
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
