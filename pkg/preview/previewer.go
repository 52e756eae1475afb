package preview

import (
	"io"
	"net/mail"
	"sort"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/wrouesnel/mailpreview/pkg/mailtemplate"
	"github.com/wrouesnel/mailpreview/pkg/recipient"
	"go.uber.org/zap"
)

// TemplateFactory loads the template with the given name.
type TemplateFactory func(name string) (*mailtemplate.EmailTemplate, error)

// Format selects what Preview writes.
type Format string

const (
	// FormatText writes the sectioned text preview.
	FormatText Format = "text"
	// FormatMIME writes an RFC 822 message.
	FormatMIME Format = "mime"
)

// DefaultSender is the From address of mime previews.
const DefaultSender = "preview@localhost"

// Option configures a Previewer.
type Option func(*Previewer)

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(p *Previewer) {
		p.format = format
	}
}

// WithSender sets the From address used by the mime format.
func WithSender(sender string) Option {
	return func(p *Previewer) {
		p.sender = sender
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Previewer) {
		p.logger = logger
	}
}

// Previewer previews templates produced by a TemplateFactory.
type Previewer struct {
	factory           TemplateFactory
	checker           recipient.Checker
	writer            io.Writer
	validPlaceholders map[string]struct{}

	format Format
	sender string
	logger *zap.Logger
}

// New creates a Previewer. validPlaceholders restricts which placeholders a
// template may use; when empty every placeholder is valid.
func New(factory TemplateFactory, checker recipient.Checker, writer io.Writer,
	validPlaceholders []string, opts ...Option) *Previewer {
	p := &Previewer{
		factory:           factory,
		checker:           checker,
		writer:            writer,
		validPlaceholders: make(map[string]struct{}, len(validPlaceholders)),
		format:            FormatText,
		sender:            DefaultSender,
		logger:            zap.L().Named("preview"),
	}
	for _, name := range validPlaceholders {
		p.validPlaceholders[name] = struct{}{}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ValidPlaceholders returns the sorted permitted placeholder names.
func (p *Previewer) ValidPlaceholders() []string {
	names := lo.Keys(p.validPlaceholders)
	sort.Strings(names)
	return names
}

// result is everything gathered about one template.
type result struct {
	template *mailtemplate.EmailTemplate
	body     string
	sections []Section
	problems []error
}

// Data returns the preview sections for the named template.
func (p *Previewer) Data(name string) []Section {
	return p.gather(name).sections
}

// Preview writes the preview of the named template to the Previewer's writer.
func (p *Previewer) Preview(name string) error {
	return p.PreviewTo(p.writer, name)
}

// PreviewTo writes the preview of the named template to w. A *ProblemsError is
// returned when the template had problems.
func (p *Previewer) PreviewTo(w io.Writer, name string) error {
	res := p.gather(name)

	var problems error
	if len(res.problems) > 0 {
		problems = &ProblemsError{Template: name, Problems: res.problems}
	}

	if p.format == FormatMIME {
		if problems != nil {
			return problems
		}
		return p.writeMessage(w, res)
	}

	for _, section := range res.sections {
		if _, err := io.WriteString(w, section.String()); err != nil {
			return errors.Wrap(err, "writing preview")
		}
	}
	return problems
}

func (p *Previewer) gather(name string) result {
	logger := p.logger.With(zap.String("template", name))
	logger.Debug("Getting preview data")

	et, err := p.factory(name)
	if err != nil {
		logger.Error("Loading template failed", zap.Error(err))
		return result{
			sections: []Section{{Heading: ErrorsHeading, Content: err.Error()}},
			problems: []error{err},
		}
	}

	res := result{template: et}

	descriptions, recipientErrs := p.recipients(et.Recipients)
	res.problems = append(res.problems, recipientErrs...)

	used := et.Placeholders()
	body, err := et.Render(p.markers(used))
	if err != nil {
		logger.Warn("Rendering body failed", zap.Error(err))
		res.problems = append(res.problems, errors.Wrap(err, "rendering body"))
	} else {
		res.body = body
	}
	if invalid := p.invalid(used); len(invalid) > 0 {
		res.problems = append(res.problems, &InvalidPlaceholdersError{Placeholders: invalid})
	}

	placeholders := Section{Heading: PlaceholdersHeading, Content: listOrNone(used)}
	if len(p.validPlaceholders) > 0 {
		placeholders = Section{
			Heading: PlaceholdersHeading,
			Children: []Section{
				{Heading: RestrictedHeading, Content: listOrNone(lo.Keys(p.validPlaceholders))},
				{Heading: UsedHeading, Content: listOrNone(used)},
			},
		}
	}

	res.sections = []Section{
		{Heading: ToHeading, Content: orNone(strings.Join(descriptions, ", "))},
		{Heading: SubjectHeading, Content: orNone(et.Subject)},
		{Heading: BodyHeading, Content: orNone(res.body)},
		placeholders,
	}

	if len(res.problems) > 0 {
		msgs := lo.Map(res.problems, func(err error, _ int) string { return err.Error() })
		res.sections = append(res.sections, Section{
			Heading: ErrorsHeading,
			Content: "* " + strings.Join(msgs, "\n* "),
		})
	}

	return res
}

func (p *Previewer) recipients(list []string) ([]string, []error) {
	if len(list) == 0 {
		if err := p.checker.NoRecipient(); err != nil {
			return nil, []error{err}
		}
		return nil, nil
	}

	var descriptions []string
	var errs []error
	for _, r := range list {
		desc, err := p.checker.Describe(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		descriptions = append(descriptions, desc)
	}
	return descriptions, errs
}

// markers maps each used placeholder to the marker shown in its place.
func (p *Previewer) markers(used []string) map[string]string {
	values := make(map[string]string, len(used))
	for _, key := range used {
		prefix := "$"
		if !p.isValid(key) {
			prefix += "INVALID_"
		}
		values[key] = prefix + strings.ToUpper(key)
	}
	return values
}

func (p *Previewer) invalid(used []string) []string {
	return lo.Filter(used, func(key string, _ int) bool { return !p.isValid(key) })
}

func (p *Previewer) isValid(key string) bool {
	if len(p.validPlaceholders) == 0 {
		return true
	}
	_, ok := p.validPlaceholders[key]
	return ok
}

func (p *Previewer) writeMessage(w io.Writer, res result) error {
	htmlBody, err := renderHTML(res.body)
	if err != nil {
		return err
	}

	msg := email.NewEmail()
	msg.From = p.sender
	msg.To = addresses(res.template.Recipients)
	msg.Subject = res.template.Subject
	msg.Text = []byte(res.body)
	msg.HTML = []byte(htmlBody)
	msg.Headers.Set("X-Mailpreview-Template", res.template.Name)

	raw, err := msg.Bytes()
	if err != nil {
		return errors.Wrap(err, "building message")
	}
	if _, err := w.Write(raw); err != nil {
		return errors.Wrap(err, "writing message")
	}
	return nil
}

// addresses keeps the recipients which are email addresses, dropping group names.
func addresses(recipients []string) []string {
	return lo.Filter(recipients, func(r string, _ int) bool {
		_, err := mail.ParseAddress(r)
		return err == nil
	})
}
