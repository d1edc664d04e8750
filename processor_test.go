package affix

import (
	"bytes"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/affix/internal/logging"
	"github.com/hengadev/affix/internal/monitoring"
)

type taggedKeys struct {
	Key1 uint32 `json:"key1" affix:"suffix=_kek"`
	Key2 int64  `json:"key2" affix:"suffix=_kek"`
}

type reading struct {
	Code        uint8   `json:"code" yaml:"code" affix:"prefix=A"`
	Temperature float32 `json:"temperature" yaml:"temperature" affix:"suffix=C"`
}

type taggedCodes struct {
	CodeA uint8 `json:"code_a" affix:"prefix=A"`
	CodeB uint8 `json:"code_b" affix:"prefix=B"`
}

type mixed struct {
	ID       string     `json:"id" yaml:"id"`
	Length   *uint16    `json:"length,omitempty" yaml:"length,omitempty" affix:"meter"`
	Seen     time.Time  `json:"seen" yaml:"seen" affix:"prefix=@"`
	Tags     []string   `json:"tags" yaml:"tags"`
	Ignored  int        `json:"ignored" yaml:"ignored" affix:"-"`
	Nested   nestedPart `json:"nested" yaml:"nested"`
	internal int
}

type EmbeddedPart struct {
	Note string `json:"note"`
}

type nestedPart struct {
	Code uint8 `json:"code" yaml:"code" affix:"prefix=N"`
}

func newTestProcessor(t *testing.T, opts ...ProcessorOption) *Processor {
	t.Helper()

	reg := NewRegistry()
	reg.MustRegister("meter", MustNew("m", Suffix))

	p, err := NewProcessor(append([]ProcessorOption{WithRegistry(reg)}, opts...)...)
	require.NoError(t, err)
	return p
}

func TestProcessor_Marshal(t *testing.T) {
	p := newTestProcessor(t)

	t.Run("suffix on integers", func(t *testing.T) {
		data, err := p.Marshal(taggedKeys{Key1: 123, Key2: 456})
		require.NoError(t, err)
		assert.Equal(t, `{"key1":"123_kek","key2":"456_kek"}`, string(data))
	})
	t.Run("prefix and suffix", func(t *testing.T) {
		data, err := p.Marshal(&reading{Code: 12, Temperature: -12.3})
		require.NoError(t, err)
		assert.Equal(t, `{"code":"A12","temperature":"-12.3C"}`, string(data))
	})
	t.Run("untagged fields keep their encoding", func(t *testing.T) {
		length := uint16(123)
		in := mixed{
			ID:     "x",
			Length: &length,
			Seen:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Tags:   []string{"a"},
			Nested: nestedPart{Code: 1},
		}

		data, err := p.Marshal(in)
		require.NoError(t, err)
		assert.Equal(t, `{"id":"x","length":"123m","seen":"@2024-03-01T00:00:00Z","tags":["a"],"ignored":0,"nested":{"code":1}}`, string(data))
	})
	t.Run("nil pointer field", func(t *testing.T) {
		data, err := p.Marshal(mixed{})
		require.NoError(t, err)
		assert.NotContains(t, string(data), "length")
	})
	t.Run("not a struct", func(t *testing.T) {
		_, err := p.Marshal(42)
		assert.ErrorIs(t, err, ErrInvalidTarget)

		var nilReading *reading
		_, err = p.Marshal(nilReading)
		assert.ErrorIs(t, err, ErrInvalidTarget)
	})
}

func TestProcessor_Unmarshal(t *testing.T) {
	p := newTestProcessor(t)

	t.Run("round trip", func(t *testing.T) {
		var out taggedKeys
		require.NoError(t, p.Unmarshal([]byte(`{"key1":"123_kek","key2":"456_kek"}`), &out))
		assert.Equal(t, taggedKeys{Key1: 123, Key2: 456}, out)
	})
	t.Run("mixed fields", func(t *testing.T) {
		length := uint16(7)
		in := mixed{ID: "x", Length: &length, Seen: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Tags: []string{"a", "b"}}

		data, err := p.Marshal(in)
		require.NoError(t, err)

		var out mixed
		require.NoError(t, p.Unmarshal(data, &out))
		require.NotNil(t, out.Length)
		assert.Equal(t, uint16(7), *out.Length)
		assert.True(t, in.Seen.Equal(out.Seen))
		assert.Equal(t, in.Tags, out.Tags)
	})
	t.Run("absent fields keep their value", func(t *testing.T) {
		out := reading{Code: 9, Temperature: 1.5}
		require.NoError(t, p.Unmarshal([]byte(`{"code":"A12"}`), &out))
		assert.Equal(t, reading{Code: 12, Temperature: 1.5}, out)
	})
	t.Run("missing affix", func(t *testing.T) {
		var out taggedCodes
		err := p.Unmarshal([]byte(`{"code_a":"12","code_b":"B34"}`), &out)
		require.Error(t, err)

		fieldErrs := FieldErrors(err)
		require.Len(t, fieldErrs, 1)

		var affixErr *Error
		require.ErrorAs(t, fieldErrs["CodeA"], &affixErr)
		assert.Equal(t, MissingAffix, affixErr.Kind)
		assert.Equal(t, "12", affixErr.Value)
		assert.Equal(t, uint8(34), out.CodeB)
	})
	t.Run("invalid payload", func(t *testing.T) {
		var out taggedCodes
		err := p.Unmarshal([]byte(`{"code_a":"A12","code_b":"B34u"}`), &out)

		fieldErrs := FieldErrors(err)
		require.Len(t, fieldErrs, 1)
		assert.ErrorIs(t, fieldErrs["CodeB"], ErrInvalidPayload)

		var affixErr *Error
		require.ErrorAs(t, fieldErrs["CodeB"], &affixErr)
		assert.Equal(t, "34u", affixErr.Value)
		assert.Equal(t, uint8(12), out.CodeA)
		assert.Zero(t, out.CodeB)
	})
	t.Run("every failing field is reported", func(t *testing.T) {
		var out taggedCodes
		err := p.Unmarshal([]byte(`{"code_a":"1","code_b":"Bx"}`), &out)

		fieldErrs := FieldErrors(err)
		assert.Len(t, fieldErrs, 2)
		assert.ErrorIs(t, fieldErrs["CodeA"], ErrMissingAffix)
		assert.ErrorIs(t, fieldErrs["CodeB"], ErrInvalidPayload)
	})
	t.Run("malformed document", func(t *testing.T) {
		var out reading
		err := p.Unmarshal([]byte(`{"code":`), &out)
		assert.ErrorContains(t, err, "unmarshal json document")
		assert.Nil(t, FieldErrors(err))
	})
	t.Run("invalid targets", func(t *testing.T) {
		var nilReading *reading
		for _, target := range []any{nil, reading{}, nilReading, new(int)} {
			assert.ErrorIs(t, p.Unmarshal([]byte(`{}`), target), ErrInvalidTarget)
		}
	})
}

func TestProcessor_PlanErrors(t *testing.T) {
	p := newTestProcessor(t)

	t.Run("unsupported field type", func(t *testing.T) {
		type bad struct {
			Tags []string `affix:"prefix=#"`
		}
		_, err := p.Marshal(bad{})
		assert.ErrorIs(t, FieldErrors(err)["Tags"], ErrUnsupportedType)
	})
	t.Run("unknown codec", func(t *testing.T) {
		type bad struct {
			Temp float64 `affix:"kelvin"`
		}
		_, err := p.Marshal(bad{})
		assert.ErrorIs(t, FieldErrors(err)["Temp"], ErrUnknownCodec)
	})
	t.Run("invalid tag", func(t *testing.T) {
		type bad struct {
			Temp float64 `affix:"around=K"`
		}
		err := p.Unmarshal([]byte(`{}`), &bad{})
		assert.ErrorIs(t, FieldErrors(err)["Temp"], ErrInvalidTag)
	})
	t.Run("embedded field", func(t *testing.T) {
		type withEmbedded struct {
			nestedPart
			EmbeddedPart
		}
		_, err := p.Marshal(withEmbedded{})
		fieldErrs := FieldErrors(err)
		assert.Len(t, fieldErrs, 1)
		assert.ErrorIs(t, fieldErrs["EmbeddedPart"], ErrUnsupportedType)
	})
	t.Run("unexported tagged field", func(t *testing.T) {
		type bad struct {
			code uint8 `affix:"prefix=A"`
		}
		_, err := p.Marshal(bad{code: 1})
		assert.ErrorIs(t, FieldErrors(err)["code"], ErrUnsupportedType)
	})
}

func TestProcessor_Formats(t *testing.T) {
	length := uint16(5)
	in := mixed{ID: "x", Length: &length, Seen: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Tags: []string{"a"}}

	for _, format := range []DocumentFormat{FormatJSON, FormatYAML, FormatMsgpack, FormatGOB} {
		t.Run(format.String(), func(t *testing.T) {
			p := newTestProcessor(t, WithFormat(format))
			assert.Equal(t, format, p.Format())

			data, err := p.Marshal(in)
			require.NoError(t, err)

			var out mixed
			require.NoError(t, p.Unmarshal(data, &out))
			require.NotNil(t, out.Length)
			assert.Equal(t, *in.Length, *out.Length)
			assert.Equal(t, in.ID, out.ID)
			assert.True(t, in.Seen.Equal(out.Seen))
		})
	}

	t.Run("yaml document", func(t *testing.T) {
		p := newTestProcessor(t, WithFormat(FormatYAML))

		data, err := p.Marshal(reading{Code: 12, Temperature: -12.3})
		require.NoError(t, err)
		assert.Equal(t, "code: A12\ntemperature: -12.3C\n", string(data))
	})
}

func TestProcessor_Options(t *testing.T) {
	_, err := NewProcessor(WithFormat("xml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = NewProcessor(WithEngine(nil))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewProcessor(WithRegistry(nil))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewProcessor(WithLogger(nil))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewProcessor(WithMetrics(nil))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestProcessor_Metrics(t *testing.T) {
	collector := monitoring.NewInMemoryMetricsCollector()
	p := newTestProcessor(t, WithMetrics(collector))

	_, err := p.Marshal(taggedKeys{Key1: 1, Key2: 2})
	require.NoError(t, err)

	var out taggedCodes
	require.Error(t, p.Unmarshal([]byte(`{"code_a":"12","code_b":"B7"}`), &out))

	marshalTags := map[string]string{"operation": "marshal", "format": "json"}
	unmarshalTags := map[string]string{"operation": "unmarshal", "format": "json"}

	assert.Equal(t, int64(2), collector.GetCounter(monitoring.MetricFields, marshalTags))
	assert.Equal(t, int64(1), collector.GetCounter(monitoring.MetricFields, unmarshalTags))
	assert.Len(t, collector.GetTimings(monitoring.MetricDuration, marshalTags), 1)
	assert.Equal(t, int64(1), collector.GetCounter(monitoring.MetricDocuments,
		map[string]string{"operation": "marshal", "format": "json", "status": "success"}))
	assert.Equal(t, int64(1), collector.GetCounter(monitoring.MetricDocuments,
		map[string]string{"operation": "unmarshal", "format": "json", "status": "error"}))
	assert.Equal(t, int64(1), collector.GetCounter(monitoring.MetricFieldErrors,
		map[string]string{"operation": "unmarshal", "field": "CodeA"}))
}

func TestProcessor_LogsDecodeFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Format: logging.FormatJSON, Output: &buf})
	p := newTestProcessor(t, WithLogger(logger))

	var out taggedCodes
	require.Error(t, p.Unmarshal([]byte(`{"code_a":"12"}`), &out))
	assert.Contains(t, buf.String(), `"msg":"built affix plan"`)
	assert.Contains(t, buf.String(), `"msg":"affix decode failed"`)
	assert.Contains(t, buf.String(), `"field":"CodeA"`)
}

func TestProcessor_CachesPlans(t *testing.T) {
	p := newTestProcessor(t, WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

	first, err := p.planFor(reflect.TypeFor[reading]())
	require.NoError(t, err)
	second, err := p.planFor(reflect.TypeFor[reading]())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestProcessor_Concurrent(t *testing.T) {
	p := newTestProcessor(t)

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := taggedKeys{Key1: uint32(i), Key2: int64(-i)}

			data, err := p.Marshal(in)
			assert.NoError(t, err)

			var out taggedKeys
			assert.NoError(t, p.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		}()
	}
	wg.Wait()
}

func TestPackageLevelMarshal(t *testing.T) {
	data, err := Marshal(reading{Code: 12, Temperature: -12.3})
	require.NoError(t, err)
	assert.Equal(t, `{"code":"A12","temperature":"-12.3C"}`, string(data))

	var out reading
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, reading{Code: 12, Temperature: -12.3}, out)
}

type quotedCode struct {
	Code  uint8 `json:"code,string,omitempty" affix:"prefix=A"`
	Count int   `json:"count,string"`
}

func TestProcessor_DropsJSONStringOption(t *testing.T) {
	p := newTestProcessor(t)

	data, err := p.Marshal(quotedCode{Code: 12, Count: 3})
	require.NoError(t, err)
	assert.Equal(t, `{"code":"A12","count":"3"}`, string(data))

	var out quotedCode
	require.NoError(t, p.Unmarshal(data, &out))
	assert.Equal(t, quotedCode{Code: 12, Count: 3}, out)
}

func TestDropJSONString(t *testing.T) {
	tests := []struct {
		tag  reflect.StructTag
		want reflect.StructTag
	}{
		{`json:"code,string" affix:"prefix=A"`, `json:"code" affix:"prefix=A"`},
		{`json:"code,omitempty,string"`, `json:"code,omitempty"`},
		{`json:"code,omitempty"`, `json:"code,omitempty"`},
		{`json:",string"`, `json:""`},
		{`yaml:"code"`, `yaml:"code"`},
	}

	for _, tt := range tests {
		t.Run(string(tt.tag), func(t *testing.T) {
			assert.Equal(t, tt.want, dropJSONString(tt.tag))
		})
	}
}
