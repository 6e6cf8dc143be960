package asm

import "fmt"

// AnnotationWriter serializes one annotation, or one array element value
// when it was created by VisitArray.
type AnnotationWriter struct {
	st     *symbolTable
	buf    *byteVector
	named  bool
	count  int
	offset int // position of the element count in buf
	fail   func(error)
}

func newAnnotationWriter(st *symbolTable, desc string, fail func(error)) *AnnotationWriter {
	buf := &byteVector{}
	buf.putShort(st.addUtf8(desc)).putShort(0)
	return &AnnotationWriter{st: st, buf: buf, named: true, offset: 2, fail: fail}
}

func (a *AnnotationWriter) nested(named bool) *AnnotationWriter {
	return &AnnotationWriter{st: a.st, buf: a.buf, named: named, offset: a.buf.len() - 2, fail: a.fail}
}

func (a *AnnotationWriter) element(name string) {
	a.count++
	if a.named {
		a.buf.putShort(a.st.addUtf8(name))
	}
}

func (a *AnnotationWriter) Visit(name string, value any) {
	if !isAnnotationValue(value) {
		a.fail(fmt.Errorf("annotation element %q: %w: %T", name, ErrUnsupportedValue, value))
		return
	}
	a.element(name)
	st, buf := a.st, a.buf
	switch v := value.(type) {
	case string:
		buf.put12('s', st.addUtf8(v))
	case bool:
		buf.put12('Z', st.addInteger(boolInt(v)))
	case int8:
		buf.put12('B', st.addInteger(int32(v)))
	case byte:
		buf.put12('B', st.addInteger(int32(int8(v))))
	case Char:
		buf.put12('C', st.addInteger(int32(v)))
	case int16:
		buf.put12('S', st.addInteger(int32(v)))
	case int:
		buf.put12('I', st.addInteger(int32(v)))
	case int32:
		buf.put12('I', st.addInteger(v))
	case int64:
		buf.put12('J', st.addLong(v))
	case float32:
		buf.put12('F', st.addFloat(v))
	case float64:
		buf.put12('D', st.addDouble(v))
	case ClassLiteral:
		buf.put12('c', st.addUtf8(string(v)))
	case []string:
		buf.put12('[', len(v))
		for _, s := range v {
			buf.put12('s', st.addUtf8(s))
		}
	case []bool:
		buf.put12('[', len(v))
		for _, b := range v {
			buf.put12('Z', st.addInteger(boolInt(b)))
		}
	case []byte:
		buf.put12('[', len(v))
		for _, b := range v {
			buf.put12('B', st.addInteger(int32(int8(b))))
		}
	case []Char:
		buf.put12('[', len(v))
		for _, c := range v {
			buf.put12('C', st.addInteger(int32(c)))
		}
	case []int16:
		buf.put12('[', len(v))
		for _, s := range v {
			buf.put12('S', st.addInteger(int32(s)))
		}
	case []int:
		buf.put12('[', len(v))
		for _, i := range v {
			buf.put12('I', st.addInteger(int32(i)))
		}
	case []int32:
		buf.put12('[', len(v))
		for _, i := range v {
			buf.put12('I', st.addInteger(i))
		}
	case []int64:
		buf.put12('[', len(v))
		for _, l := range v {
			buf.put12('J', st.addLong(l))
		}
	case []float32:
		buf.put12('[', len(v))
		for _, f := range v {
			buf.put12('F', st.addFloat(f))
		}
	case []float64:
		buf.put12('[', len(v))
		for _, d := range v {
			buf.put12('D', st.addDouble(d))
		}
	}
}

func isAnnotationValue(value any) bool {
	switch value.(type) {
	case string, bool, int8, byte, Char, int16, int, int32, int64, float32, float64, ClassLiteral,
		[]string, []bool, []byte, []Char, []int16, []int, []int32, []int64, []float32, []float64:
		return true
	}
	return false
}

func (a *AnnotationWriter) VisitEnum(name, desc, value string) {
	a.element(name)
	a.buf.put12('e', a.st.addUtf8(desc)).putShort(a.st.addUtf8(value))
}

func (a *AnnotationWriter) VisitAnnotation(name, desc string) AnnotationVisitor {
	a.element(name)
	a.buf.put12('@', a.st.addUtf8(desc)).putShort(0)
	return a.nested(true)
}

func (a *AnnotationWriter) VisitArray(name string) AnnotationVisitor {
	a.element(name)
	a.buf.put12('[', 0)
	return a.nested(false)
}

func (a *AnnotationWriter) VisitEnd() {
	a.buf.setShort(a.offset, a.count)
}

func (a *AnnotationWriter) bytes() []byte {
	return a.buf.data
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// annotationSet holds the visible and invisible annotations of one element.
type annotationSet struct {
	visible   []*AnnotationWriter
	invisible []*AnnotationWriter
}

func (s *annotationSet) add(st *symbolTable, desc string, visible bool, fail func(error)) *AnnotationWriter {
	aw := newAnnotationWriter(st, desc, fail)
	if visible {
		s.visible = append(s.visible, aw)
	} else {
		s.invisible = append(s.invisible, aw)
	}
	return aw
}

func (s *annotationSet) count() int {
	n := 0
	if len(s.visible) > 0 {
		n++
	}
	if len(s.invisible) > 0 {
		n++
	}
	return n
}

// put writes the RuntimeVisibleAnnotations and RuntimeInvisibleAnnotations
// attributes, adding their names to the pool.
func (s *annotationSet) put(st *symbolTable, out *byteVector) {
	for _, group := range []struct {
		name string
		list []*AnnotationWriter
	}{
		{"RuntimeVisibleAnnotations", s.visible},
		{"RuntimeInvisibleAnnotations", s.invisible},
	} {
		if len(group.list) == 0 {
			continue
		}
		size := 2
		for _, aw := range group.list {
			size += len(aw.bytes())
		}
		out.putShort(st.addUtf8(group.name)).putInt(size).putShort(len(group.list))
		for _, aw := range group.list {
			out.putBytes(aw.bytes())
		}
	}
}
