package wordpress

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrPHPSerialized = errors.New("некорректные данные PHP serialize")

// UnserializePHP декодирует вывод PHP serialize(), которым WordPress хранит
// _wp_attachment_metadata. Массивы и объекты становятся map[string]any
// (целые ключи приводятся к строке), целые - int64, дробные - float64.
func UnserializePHP(s string) (any, error) {
	d := &phpDecoder{s: s}
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	return v, nil
}

type phpDecoder struct {
	s   string
	pos int
}

func (d *phpDecoder) fail(what string) error {
	return fmt.Errorf("%w: %s на позиции %d", ErrPHPSerialized, what, d.pos)
}

func (d *phpDecoder) expect(c byte) error {
	if d.pos >= len(d.s) || d.s[d.pos] != c {
		return d.fail(fmt.Sprintf("ожидался '%c'", c))
	}
	d.pos++
	return nil
}

// until читает до разделителя и пропускает его.
func (d *phpDecoder) until(sep byte) (string, error) {
	i := strings.IndexByte(d.s[d.pos:], sep)
	if i < 0 {
		return "", d.fail(fmt.Sprintf("нет '%c'", sep))
	}
	out := d.s[d.pos : d.pos+i]
	d.pos += i + 1
	return out, nil
}

func (d *phpDecoder) value() (any, error) {
	if d.pos+1 >= len(d.s) {
		return nil, d.fail("неожиданный конец")
	}
	kind := d.s[d.pos]
	d.pos++
	if kind == 'N' {
		return nil, d.expect(';')
	}
	if err := d.expect(':'); err != nil {
		return nil, err
	}
	switch kind {
	case 'b':
		raw, err := d.until(';')
		if err != nil {
			return nil, err
		}
		return raw == "1", nil
	case 'i':
		raw, err := d.until(';')
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, d.fail("целое " + raw)
		}
		return n, nil
	case 'd':
		raw, err := d.until(';')
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, d.fail("дробное " + raw)
		}
		return f, nil
	case 's':
		str, err := d.str()
		if err != nil {
			return nil, err
		}
		return str, d.expect(';')
	case 'a':
		return d.array()
	case 'O':
		// O:8:"stdClass":2:{...} - имя класса не нужно.
		if _, err := d.str(); err != nil {
			return nil, err
		}
		if err := d.expect(':'); err != nil {
			return nil, err
		}
		return d.array()
	}
	return nil, d.fail(fmt.Sprintf("неизвестный тип '%c'", kind))
}

// str читает <len>:"<bytes>". Длина указана в байтах.
func (d *phpDecoder) str() (string, error) {
	raw, err := d.until(':')
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return "", d.fail("длина строки " + raw)
	}
	if err := d.expect('"'); err != nil {
		return "", err
	}
	if d.pos+n > len(d.s) {
		return "", d.fail("строка обрезана")
	}
	out := d.s[d.pos : d.pos+n]
	d.pos += n
	return out, d.expect('"')
}

func (d *phpDecoder) array() (map[string]any, error) {
	raw, err := d.until(':')
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, d.fail("размер массива " + raw)
	}
	if err := d.expect('{'); err != nil {
		return nil, err
	}
	out := make(map[string]any, n)
	for i := 0; i < n; i++ {
		k, err := d.value()
		if err != nil {
			return nil, err
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		switch key := k.(type) {
		case string:
			out[key] = v
		case int64:
			out[strconv.FormatInt(key, 10)] = v
		default:
			return nil, d.fail("ключ массива")
		}
	}
	return out, d.expect('}')
}
