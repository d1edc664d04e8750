package affix

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hengadev/errsx"

	"github.com/hengadev/affix/internal/logging"
	"github.com/hengadev/affix/internal/monitoring"
	"github.com/hengadev/affix/internal/serialization"
)

// DocumentFormat names a document format understood by a Processor.
type DocumentFormat = serialization.Format

// Engine renders whole documents for a Processor.
type Engine = serialization.Engine

// MetricsCollector receives the counters and timings of a Processor.
type MetricsCollector = monitoring.MetricsCollector

const (
	FormatJSON    = serialization.JSON
	FormatYAML    = serialization.YAML
	FormatMsgpack = serialization.Msgpack
	FormatGOB     = serialization.GOB
)

// Processor marshals structs whose scalar fields carry an affix tag:
//
//	type Reading struct {
//	    Code        uint8   `json:"code" affix:"prefix=A"`
//	    Temperature float32 `json:"temperature" affix:"celsius"`
//	}
//
// For every struct type it builds, once, a shadow struct in which affixed
// fields are strings and every other exported field keeps its type and tags.
// The document itself is written and read by the configured Engine, so field
// names, order and options come from the usual json, yaml or msgpack tags.
// Nested structs are copied as they are and not searched for affix tags.
//
// A Processor is safe for concurrent use.
type Processor struct {
	engine   Engine
	registry *Registry
	logger   *slog.Logger
	metrics  MetricsCollector

	plans sync.Map // reflect.Type -> *plan
}

type ProcessorOption func(p *Processor) error

// WithFormat selects the engine of a format. JSON is the default.
func WithFormat(format DocumentFormat) ProcessorOption {
	return func(p *Processor) error {
		engine, err := format.NewEngine()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnknownFormat, err)
		}
		p.engine = engine
		return nil
	}
}

// WithEngine uses a custom engine.
func WithEngine(engine Engine) ProcessorOption {
	return func(p *Processor) error {
		if engine == nil {
			return fmt.Errorf("%w: engine cannot be nil", ErrInvalidConfiguration)
		}
		p.engine = engine
		return nil
	}
}

// WithRegistry resolves named tags against reg instead of DefaultRegistry.
func WithRegistry(reg *Registry) ProcessorOption {
	return func(p *Processor) error {
		if reg == nil {
			return fmt.Errorf("%w: registry cannot be nil", ErrInvalidConfiguration)
		}
		p.registry = reg
		return nil
	}
}

func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfiguration)
		}
		p.logger = logger
		return nil
	}
}

// WithMetrics reports document counts, affixed field counts, field errors
// and durations to collector.
func WithMetrics(collector MetricsCollector) ProcessorOption {
	return func(p *Processor) error {
		if collector == nil {
			return fmt.Errorf("%w: metrics collector cannot be nil", ErrInvalidConfiguration)
		}
		p.metrics = collector
		return nil
	}
}

func NewProcessor(opts ...ProcessorOption) (*Processor, error) {
	p := &Processor{
		engine:   serialization.JSONEngine{},
		registry: DefaultRegistry,
		logger:   logging.Discard(),
		metrics:  &monitoring.NoOpMetricsCollector{},
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Processor) Format() DocumentFormat {
	return p.engine.Format()
}

type fieldPlan struct {
	name    string
	index   int
	codec   Codec
	affixed bool
	// pointer is set for *T fields, elem is then T.
	pointer bool
	elem    reflect.Type
}

type plan struct {
	shadow reflect.Type
	fields []fieldPlan
}

var stringPtrType = reflect.TypeFor[*string]()

// dropJSONString removes the ",string" json option, which would quote the
// already affixed string a second time.
func dropJSONString(tag reflect.StructTag) reflect.StructTag {
	value, ok := tag.Lookup("json")
	if !ok {
		return tag
	}
	name, opts, _ := strings.Cut(value, ",")
	if opts == "" {
		return tag
	}

	kept := []string{name}
	for _, opt := range strings.Split(opts, ",") {
		if opt != "string" {
			kept = append(kept, opt)
		}
	}
	if len(kept) == len(strings.Split(value, ",")) {
		return tag
	}

	raw := "json:" + strconv.Quote(value)
	replaced := "json:" + strconv.Quote(strings.Join(kept, ","))
	return reflect.StructTag(strings.Replace(string(tag), raw, replaced, 1))
}

func (p *Processor) planFor(t reflect.Type) (*plan, error) {
	if cached, ok := p.plans.Load(t); ok {
		return cached.(*plan), nil
	}

	var (
		errs    errsx.Map
		fields  []fieldPlan
		shadows []reflect.StructField
	)
	for i := range t.NumField() {
		field := t.Field(i)
		tag, tagged := field.Tag.Lookup(StructTag)

		if field.Anonymous {
			if tagged {
				errs.Set(field.Name, fmt.Errorf("%w: embedded field '%s' cannot carry an affix tag", ErrUnsupportedType, field.Name))
			} else if field.IsExported() {
				errs.Set(field.Name, fmt.Errorf("%w: embedded field '%s' is not supported", ErrUnsupportedType, field.Name))
			}
			continue
		}
		if !field.IsExported() {
			if tagged {
				errs.Set(field.Name, fmt.Errorf("%w: unexported field '%s' cannot carry an affix tag", ErrUnsupportedType, field.Name))
			}
			continue
		}

		fp := fieldPlan{name: field.Name, index: i}
		shadow := reflect.StructField{Name: field.Name, Type: field.Type, Tag: field.Tag}

		if tagged && tag != "-" {
			codec, err := ParseTag(tag, p.registry)
			if err != nil {
				errs.Set(field.Name, err)
				continue
			}

			elem := field.Type
			if elem.Kind() == reflect.Pointer {
				fp.pointer = true
				elem = elem.Elem()
			}
			if !Supports(elem) {
				errs.Set(field.Name, NewUnsupportedTypeError(field.Name, field.Type.String()))
				continue
			}

			fp.affixed = true
			fp.codec = codec
			fp.elem = elem
			shadow.Type = stringPtrType
			shadow.Tag = dropJSONString(field.Tag)
		}

		fields = append(fields, fp)
		shadows = append(shadows, shadow)
	}

	if !errs.IsEmpty() {
		return nil, errs.AsError()
	}

	pl := &plan{shadow: reflect.StructOf(shadows), fields: fields}
	actual, loaded := p.plans.LoadOrStore(t, pl)
	if !loaded {
		p.logger.Debug("built affix plan", "type", t.String(), "fields", len(fields))
	}
	return actual.(*plan), nil
}

// Marshal encodes v, a struct or a pointer to one, into a document.
func (p *Processor) Marshal(v any) ([]byte, error) {
	start := time.Now()
	data, fields, err := p.marshal(v)
	p.record("marshal", start, fields, err)
	return data, err
}

func (p *Processor) marshal(v any) ([]byte, int, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, 0, fmt.Errorf("%w: cannot marshal a nil pointer", ErrInvalidTarget)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, 0, fmt.Errorf("%w: Marshal requires a struct, got %T", ErrInvalidTarget, v)
	}

	pl, err := p.planFor(rv.Type())
	if err != nil {
		return nil, 0, err
	}

	encoded := 0

	var errs errsx.Map
	shadow := reflect.New(pl.shadow).Elem()
	for i, fp := range pl.fields {
		src := rv.Field(fp.index)
		dst := shadow.Field(i)

		if !fp.affixed {
			dst.Set(src)
			continue
		}
		if fp.pointer {
			if src.IsNil() {
				continue
			}
			src = src.Elem()
		}
		s, err := fp.codec.EncodeValue(src)
		if err != nil {
			errs.Set(fp.name, err)
			continue
		}
		dst.Set(reflect.ValueOf(&s))
		encoded++
	}
	if !errs.IsEmpty() {
		return nil, encoded, errs.AsError()
	}

	data, err := p.engine.Marshal(shadow.Interface())
	if err != nil {
		return nil, encoded, fmt.Errorf("marshal %s document: %w", p.engine.Format(), err)
	}
	return data, encoded, nil
}

// Unmarshal decodes a document into v, which must be a non-nil pointer to a
// struct. Fields absent from the document keep their value. Every field that
// fails to decode is reported in the returned errsx.Map, keyed by field name;
// the other fields are still assigned. See FieldErrors.
func (p *Processor) Unmarshal(data []byte, v any) error {
	start := time.Now()
	fields, err := p.unmarshal(data, v)
	p.record("unmarshal", start, fields, err)
	return err
}

func (p *Processor) unmarshal(data []byte, v any) (int, error) {
	if err := validateTarget(v); err != nil {
		return 0, err
	}
	rv := reflect.ValueOf(v).Elem()

	pl, err := p.planFor(rv.Type())
	if err != nil {
		return 0, err
	}

	shadowPtr := reflect.New(pl.shadow)
	shadow := shadowPtr.Elem()
	for i, fp := range pl.fields {
		if !fp.affixed {
			shadow.Field(i).Set(rv.Field(fp.index))
		}
	}

	if err := p.engine.Unmarshal(data, shadowPtr.Interface()); err != nil {
		return 0, fmt.Errorf("unmarshal %s document: %w", p.engine.Format(), err)
	}

	decodedFields := 0
	var errs errsx.Map
	for i, fp := range pl.fields {
		src := shadow.Field(i)
		dst := rv.Field(fp.index)

		if !fp.affixed {
			dst.Set(src)
			continue
		}
		if src.IsNil() {
			continue
		}

		decoded := reflect.New(fp.elem)
		if err := fp.codec.DecodeValue(src.Elem().String(), decoded.Elem()); err != nil {
			p.logger.Debug("affix decode failed", "type", rv.Type().String(), "field", fp.name, "error", err)
			errs.Set(fp.name, err)
			continue
		}
		if fp.pointer {
			dst.Set(decoded)
		} else {
			dst.Set(decoded.Elem())
		}
		decodedFields++
	}
	return decodedFields, errs.AsError()
}

func (p *Processor) record(operation string, start time.Time, fields int, err error) {
	format := p.engine.Format().String()
	tags := map[string]string{"operation": operation, "format": format}
	p.metrics.RecordTiming(monitoring.MetricDuration, time.Since(start), tags)
	p.metrics.IncrementCounterBy(monitoring.MetricFields, int64(fields), tags)

	for name := range FieldErrors(err) {
		p.metrics.IncrementCounter(monitoring.MetricFieldErrors, map[string]string{"operation": operation, "field": name})
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.IncrementCounter(monitoring.MetricDocuments, map[string]string{"operation": operation, "format": format, "status": status})
}

// validateTarget checks that v is a non-nil pointer to a struct.
func validateTarget(v any) error {
	if v == nil {
		return fmt.Errorf("%w: target cannot be nil", ErrInvalidTarget)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return fmt.Errorf("%w: must be a pointer to a struct, got %T", ErrInvalidTarget, v)
	}
	if rv.IsNil() {
		return fmt.Errorf("%w: pointer to struct cannot be nil", ErrInvalidTarget)
	}
	if rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: must be a pointer to a struct, got %T", ErrInvalidTarget, v)
	}
	return nil
}

// FieldErrors returns the per-field errors carried by an error returned from
// Processor.Marshal or Processor.Unmarshal, or nil if err has none.
func FieldErrors(err error) map[string]error {
	var errs errsx.Map
	if !errors.As(err, &errs) {
		return nil
	}
	return errs
}

var defaultProcessor = sync.OnceValue(func() *Processor {
	p, _ := NewProcessor()
	return p
})

// Marshal encodes v as JSON, resolving named tags against DefaultRegistry.
func Marshal(v any) ([]byte, error) {
	return defaultProcessor().Marshal(v)
}

// Unmarshal decodes JSON into v, resolving named tags against
// DefaultRegistry.
func Unmarshal(data []byte, v any) error {
	return defaultProcessor().Unmarshal(data, v)
}
