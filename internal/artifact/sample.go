package artifact

import (
	"encoding/base64"
	"sync"
)

// sampleVideoBase64 is a short, silent, abstract looping clip used as the
// placeholder artifact when the provider reports quota exhaustion.
const sampleVideoBase64 = "AAAAIGZ0eXBpc29tAAACAGlzb21pc28yYXZjMW1wNDEAAAAIZnJlZQAAAy5tZGF0AAACrgYF" +
	"//+q3EXpvebZSLeWLNgg2SPu73gyNjQgLSBjb3JlIDE1MiByMjg1NCBlOWE1OTAzIC0gSC4y" +
	"NjQvTVBFRy00IEFWQyBjb2RlYyAtIENvcHlsZWZ0IDIwMDMtMjAxNyAtIGh0dHA6Ly93d3cu" +
	"dmlkZW9sYW4ub3JnL3gyNjQuaHRtbCAtIG9wdGlvbnM6IGNhYmFjPTEgcmVmPTMgZGVibG9j" +
	"az0xOjA6MCBhbmFseXNlPTB4MzoweDExMyBtZT1oZXggc3VibWU9NyBwc3k9MSBwc3lfcmQ9" +
	"MS4wMDowLjAwIG1peGVkX3JlZj0xIG1lX3JhbmdlPTE2IGNocm9tYV9tZT0xIHRyZWxsaXM9" +
	"MSA4eDhkY3Q9MSBjcW09MCBkZWFkem9uZT0yMSwxMSBmYXN0X3Bza2lwPTEgY2hyb21hX3Fw" +
	"X29mZnNldD0tMiB0aHJlYWRzPTMgbG9va2FoZWFkX3RocmVhZHM9MSBzbGljZWRfdGhyZWFk" +
	"cz0wIG5yPTAgZGVjaW1hdGU9MSBpbnRlcmxhY2VkPTAgYmx1cmF5X2NvbXBhdD0wIGNvbnN0" +
	"cmFpbmVkX2ludHJhPTAgYmZyYW1lcz0zIGJfcHlyYW1pZD0yIGJfYWRhcHQ9MSBiX2JpYXM9" +
	"MCBkaXJlY3Q9MSB3ZWlnaHRiPTEgb3Blbl9nb3A9MCB3ZWlnaHRwPTIga2V5aW50PTI1MCBr" +
	"ZXlpbnRfbWluPTI1IHNjZW5lY3V0PTQwIGludHJhX3JlZnJlc2g9MA=="

var (
	sampleOnce  sync.Once
	sampleBytes []byte
)

// Sample returns the embedded placeholder video bytes. The returned slice is
// freshly copied so callers can hand it to independent handles.
func Sample() []byte {
	sampleOnce.Do(func() {
		decoded, err := base64.StdEncoding.DecodeString(sampleVideoBase64)
		if err != nil {
			// The constant is fixed at build time; a decode failure means a
			// broken build, not a runtime condition.
			panic("artifact: invalid embedded sample video: " + err.Error())
		}
		sampleBytes = decoded
	})

	out := make([]byte, len(sampleBytes))
	copy(out, sampleBytes)
	return out
}

// SampleContentType is the media type of the embedded placeholder video.
const SampleContentType = "video/mp4"
