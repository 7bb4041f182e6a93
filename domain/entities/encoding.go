package entities

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// AudioEncoding identifies how audio bytes are encoded. The numeric value is the
// V1P1Beta1 RecognitionConfig.AudioEncoding wire code.
type AudioEncoding int32

const (
	EncodingUnspecified AudioEncoding = 0
	EncodingLinear16    AudioEncoding = 1
	EncodingFLAC        AudioEncoding = 2
	EncodingOggOpus     AudioEncoding = 6
	EncodingMP3         AudioEncoding = 8
)

const defaultExtension = ".flac"

type encodingInfo struct {
	name      string
	extension string
}

var encodings = map[AudioEncoding]encodingInfo{
	EncodingLinear16: {name: "LINEAR16", extension: ".wav"},
	EncodingFLAC:     {name: "FLAC", extension: ".flac"},
	EncodingOggOpus:  {name: "OGG_OPUS", extension: ".ogg"},
	EncodingMP3:      {name: "MP3", extension: ".mp3"},
}

// Name returns the REST form of the encoding. Unspecified encodings have no
// name and yield an empty string.
func (e AudioEncoding) Name() string {
	return encodings[e].name
}

// Code returns the integer form sent to the client library.
func (e AudioEncoding) Code() int32 {
	return int32(e)
}

// String implements fmt.Stringer
func (e AudioEncoding) String() string {
	if info, ok := encodings[e]; ok {
		return info.name
	}
	return "ENCODING_UNSPECIFIED"
}

// Extension returns the canonical file extension, ".flac" when unknown.
func (e AudioEncoding) Extension() string {
	if info, ok := encodings[e]; ok {
		return info.extension
	}
	return defaultExtension
}

// EncodingForExtension maps a file extension (or a whole file name) to an
// encoding by suffix. WAV is treated as PCM.
func EncodingForExtension(extension string) AudioEncoding {
	ext := strings.ToLower(extension)
	switch {
	case strings.HasSuffix(ext, ".flac"):
		return EncodingFLAC
	case strings.HasSuffix(ext, ".mp3"):
		return EncodingMP3
	case strings.HasSuffix(ext, ".wav"), strings.HasSuffix(ext, ".pcm"):
		return EncodingLinear16
	case strings.HasSuffix(ext, ".ogg"):
		return EncodingOggOpus
	default:
		return EncodingUnspecified
	}
}

// EncodingNameForExtension is the string form of EncodingForExtension.
// Unmatched extensions yield "" rather than an unspecified tag.
func EncodingNameForExtension(extension string) string {
	return EncodingForExtension(extension).Name()
}

// ParseEncoding looks an encoding up by its REST name.
func ParseEncoding(name string) AudioEncoding {
	for enc, info := range encodings {
		if info.name == name {
			return enc
		}
	}
	return EncodingUnspecified
}

// ExtensionForEncoding accepts an AudioEncoding, a REST name or an integer
// code and returns the canonical extension. Anything it does not recognise,
// including values of other types, falls back to ".flac".
func ExtensionForEncoding(encoding interface{}) string {
	switch v := encoding.(type) {
	case AudioEncoding:
		return v.Extension()
	case string:
		return ParseEncoding(v).Extension()
	}

	rv := reflect.ValueOf(encoding)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		code := rv.Int()
		if code != int64(int32(code)) {
			return defaultExtension
		}
		return AudioEncoding(code).Extension()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		code := rv.Uint()
		if code > 1<<31-1 {
			return defaultExtension
		}
		return AudioEncoding(code).Extension()
	default:
		return defaultExtension
	}
}

// MarshalJSON writes the REST name.
func (e AudioEncoding) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Name())
}

// UnmarshalJSON accepts either the REST name or the integer code.
func (e *AudioEncoding) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*e = ParseEncoding(name)
		return nil
	}
	var code int32
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("invalid audio encoding %s: %w", string(data), err)
	}
	*e = AudioEncoding(code)
	return nil
}

// UnmarshalYAML accepts an encoding name such as FLAC or a file extension.
func (e *AudioEncoding) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return fmt.Errorf("invalid audio encoding: %w", err)
	}
	if strings.HasPrefix(name, ".") {
		*e = EncodingForExtension(name)
		return nil
	}
	*e = ParseEncoding(strings.ToUpper(name))
	return nil
}
