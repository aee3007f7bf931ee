package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Gobusters/ectologger"
	"nhooyr.io/websocket"

	"github.com/Ramsey-B/fern/pkg/report"
)

var errNotEmbedded = errors.New("report is not embedded")

// Responder plays the host page side of the protocol on top of a local
// report.Host. It lets a report.Host implementation, such as the simulated
// demo report, be driven through a real bridge connection.
type Responder struct {
	conn   *websocket.Conn
	host   report.Host
	logger ectologger.Logger
	notify func(method string, params json.RawMessage)

	mu     sync.Mutex
	report report.Report
}

// NewResponder answers requests arriving on conn with host
func NewResponder(conn *websocket.Conn, host report.Host, logger ectologger.Logger) *Responder {
	if logger == nil {
		logger = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	}
	conn.SetReadLimit(ReadLimit)
	return &Responder{conn: conn, host: host, logger: logger}
}

// OnNotify registers fn to receive notifications such as session.state.
// It must be called before Run.
func (r *Responder) OnNotify(fn func(method string, params json.RawMessage)) *Responder {
	r.notify = fn
	return r
}

// Run answers requests and forwards host events until ctx ends or the connection closes
func (r *Responder) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go r.forwardEvents(ctx)

	for {
		_, data, err := r.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			r.logger.WithContext(ctx).WithError(err).Warn("Discarding malformed bridge frame")
			continue
		}
		if msg.ID == "" {
			if msg.Method != "" && r.notify != nil {
				r.notify(msg.Method, msg.Params)
			}
			continue
		}

		go r.answer(ctx, msg)
	}
}

func (r *Responder) forwardEvents(ctx context.Context) {
	events := r.host.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := r.send(ctx, Message{Event: &event}); err != nil {
				r.logger.WithContext(ctx).WithError(err).Warn("Failed to forward report event")
			}
		}
	}
}

func (r *Responder) answer(ctx context.Context, msg Message) {
	resp := Message{ID: msg.ID}

	result, err := r.handle(ctx, msg)
	if err != nil {
		resp.Error = &RemoteError{Code: ErrorCode(err), Message: err.Error()}
	} else if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			resp.Error = &RemoteError{Code: CodeSDK, Message: err.Error()}
		} else {
			resp.Result = raw
		}
	}

	if err := r.send(ctx, resp); err != nil {
		r.logger.WithContext(ctx).WithError(err).Warnf("Failed to answer %s", msg.Method)
	}
}

func (r *Responder) send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.conn.Write(ctx, websocket.MessageText, data)
}

func (r *Responder) embedded() (report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.report == nil {
		return nil, errNotEmbedded
	}
	return r.report, nil
}

func (r *Responder) handle(ctx context.Context, msg Message) (any, error) {
	var params Params
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
	}

	switch msg.Method {
	case MethodReady:
		return r.host.Ready(ctx)
	case MethodEmbed:
		if params.Options == nil {
			return nil, errors.New("embed options are required")
		}
		rep, err := r.host.Embed(ctx, *params.Options)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.report = rep
		r.mu.Unlock()
		return ReportDescriptor{Capabilities: rep.Capabilities()}, nil
	}

	rep, err := r.embedded()
	if err != nil {
		return nil, err
	}

	kind, method, _ := strings.Cut(msg.Method, ".")
	if strings.HasSuffix(method, "Filters") {
		return r.handleFilters(ctx, rep, kind, method, params)
	}

	switch msg.Method {
	case MethodGetPages:
		pages, err := rep.GetPages(ctx)
		if err != nil {
			return nil, err
		}
		descs := make([]PageDescriptor, len(pages))
		for i, page := range pages {
			descs[i] = DescribePage(page)
		}
		return descs, nil
	case MethodSetPage:
		return nil, rep.SetPage(ctx, params.Name)
	case MethodAddPage:
		page, err := rep.AddPage(ctx, params.DisplayName)
		if err != nil {
			return nil, err
		}
		return DescribePage(page), nil
	case MethodDeletePage:
		return nil, rep.DeletePage(ctx, params.Name)
	case MethodSave:
		return nil, rep.Save(ctx)
	}

	page, err := findPage(ctx, rep, params.Page)
	if err != nil {
		return nil, err
	}

	switch msg.Method {
	case MethodGetVisuals:
		pageVisuals, err := page.GetVisuals(ctx)
		if err != nil {
			return nil, err
		}
		descs := make([]VisualDescriptor, len(pageVisuals))
		for i, visual := range pageVisuals {
			descs[i] = DescribeVisual(visual)
		}
		return descs, nil
	case MethodCreateVisual:
		if params.Layout == nil {
			return nil, errors.New("layout is required")
		}
		visual, err := page.CreateVisual(ctx, params.VisualType, *params.Layout)
		if err != nil {
			return nil, err
		}
		return DescribeVisual(visual), nil
	case MethodDeleteVisual:
		return nil, page.DeleteVisual(ctx, params.Name)
	case MethodMoveVisual:
		if params.Layout == nil {
			return nil, errors.New("layout is required")
		}
		return nil, page.MoveVisual(ctx, params.Name, params.Layout.X, params.Layout.Y)
	case MethodResizeVisual:
		if params.Layout == nil {
			return nil, errors.New("layout is required")
		}
		return nil, page.ResizeVisual(ctx, params.Name, params.Layout.Width, params.Layout.Height)
	}

	visual, err := findVisual(ctx, page, params.Visual)
	if err != nil {
		return nil, err
	}

	switch msg.Method {
	case MethodChangeType:
		return nil, visual.ChangeType(ctx, params.VisualType)
	case MethodGetDataFields:
		return visual.GetDataFields(ctx, params.Role)
	case MethodAddDataField:
		if params.Field == nil {
			return nil, errors.New("field is required")
		}
		return nil, visual.AddDataField(ctx, params.Role, *params.Field)
	case MethodRemoveDataField:
		if params.Index == nil {
			return nil, errors.New("index is required")
		}
		return nil, visual.RemoveDataField(ctx, params.Role, *params.Index)
	case MethodGetProperty:
		if params.Selector == nil {
			return nil, errors.New("selector is required")
		}
		return visual.GetProperty(ctx, *params.Selector)
	case MethodSetProperty:
		if params.Selector == nil || params.Value == nil {
			return nil, errors.New("selector and value are required")
		}
		return nil, visual.SetProperty(ctx, *params.Selector, *params.Value)
	case MethodDelete:
		return nil, visual.Delete(ctx)
	default:
		return nil, report.Unsupported("%s is not supported", msg.Method)
	}
}

func (r *Responder) handleFilters(ctx context.Context, rep report.Report, kind, method string, params Params) (any, error) {
	var target report.Filterable
	switch kind {
	case "report":
		target = rep
	case "page", "visual":
		page, err := findPage(ctx, rep, params.Page)
		if err != nil {
			return nil, err
		}
		target = page
		if kind == "visual" {
			visual, err := findVisual(ctx, page, params.Visual)
			if err != nil {
				return nil, err
			}
			target = visual
		}
	default:
		return nil, report.Unsupported("%s.%s is not supported", kind, method)
	}

	switch method {
	case MethodGetFilters:
		return target.GetFilters(ctx)
	case MethodSetFilters:
		return nil, target.SetFilters(ctx, params.Filters)
	case MethodUpdateFilters:
		if params.Operation == nil {
			return nil, errors.New("operation is required")
		}
		return nil, target.UpdateFilters(ctx, *params.Operation, params.Filters)
	case MethodRemoveFilters:
		return nil, target.RemoveFilters(ctx)
	default:
		return nil, report.Unsupported("%s.%s is not supported", kind, method)
	}
}

func findPage(ctx context.Context, rep report.Report, name string) (report.Page, error) {
	pages, err := rep.GetPages(ctx)
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		if page.Name() == name {
			return page, nil
		}
	}
	return nil, fmt.Errorf("page %q not found", name)
}

func findVisual(ctx context.Context, page report.Page, name string) (report.Visual, error) {
	pageVisuals, err := page.GetVisuals(ctx)
	if err != nil {
		return nil, err
	}
	visual, ok := report.FindVisual(pageVisuals, name)
	if !ok {
		return nil, fmt.Errorf("visual %q not found", name)
	}
	return visual, nil
}
