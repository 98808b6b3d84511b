package sse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const advisorStream = "event: usage\ndata: {\"used\": 3, \"limit\": 100}\n\n" +
	"event: message\ndata: \"<think>先看位次：\"\n\n" +
	"event: message\ndata: \"江苏 物理类 12000</think># 报告\\n| 维度 | 评分 |\"\n\n" +
	"event: message\ndata: \"time 12:30:45\"\n\n" +
	"event: end\ndata: End of stream\n\n"

func feedAll(chunks [][]byte) []Frame {
	var d Decoder
	var frames []Frame
	for _, c := range chunks {
		frames = append(frames, d.Feed(c)...)
	}
	return frames
}

var _ = Describe("Decoder", func() {
	var whole []Frame

	BeforeEach(func() {
		whole = feedAll([][]byte{[]byte(advisorStream)})
	})

	It("decodes every frame of a complete stream", func() {
		Expect(whole).To(HaveLen(5))
		Expect(whole[0].Name()).To(Equal("usage"))
		Expect(whole[0].Data).To(Equal(`{"used": 3, "limit": 100}`))
		Expect(whole[1].Data).To(Equal(`"<think>先看位次："`))
		Expect(whole[4].Name()).To(Equal("end"))
	})

	It("keeps internal colons in the payload", func() {
		Expect(whole[3].Data).To(Equal(`"time 12:30:45"`))
	})

	Context("chunking invariance", func() {
		It("yields the same frames for every two-way split", func() {
			raw := []byte(advisorStream)
			for i := 0; i <= len(raw); i++ {
				got := feedAll([][]byte{raw[:i], raw[i:]})
				Expect(got).To(Equal(whole), "split at byte %d", i)
			}
		})

		It("yields the same frames when fed one byte at a time", func() {
			raw := []byte(advisorStream)
			chunks := make([][]byte, 0, len(raw))
			for i := range raw {
				chunks = append(chunks, raw[i:i+1])
			}
			Expect(feedAll(chunks)).To(Equal(whole))
		})

		It("yields the same frames for irregular chunk sizes", func() {
			raw := []byte(advisorStream)
			for _, size := range []int{2, 3, 5, 7, 13, 64} {
				var chunks [][]byte
				for i := 0; i < len(raw); i += size {
					end := min(i+size, len(raw))
					chunks = append(chunks, raw[i:end])
				}
				Expect(feedAll(chunks)).To(Equal(whole), "chunk size %d", size)
			}
		})

		It("never emits a frame before its delimiter is buffered", func() {
			var d Decoder
			Expect(d.Feed([]byte("event: message\ndata: \"a\"\n"))).To(BeEmpty())
			Expect(d.buffered()).To(BeNumerically(">", 0))

			frames := d.Feed([]byte("\n"))
			Expect(frames).To(HaveLen(1))
			Expect(frames[0].Data).To(Equal(`"a"`))
			Expect(d.buffered()).To(BeZero())
		})

		It("reassembles multi-byte characters split across chunks", func() {
			raw := []byte("event: message\ndata: \"志愿\"\n\n")
			// Cut inside the three-byte encoding of 志.
			cut := len("event: message\ndata: \"") + 1

			var d Decoder
			Expect(d.Feed(raw[:cut])).To(BeEmpty())
			frames := d.Feed(raw[cut:])
			Expect(frames).To(HaveLen(1))
			Expect(frames[0].Data).To(Equal(`"志愿"`))
		})
	})

	Describe("frame parsing", func() {
		It("accepts fields without a space after the colon", func() {
			var d Decoder
			frames := d.Feed([]byte("event:usage\ndata:{\"used\":1,\"limit\":2}\n\n"))
			Expect(frames).To(HaveLen(1))
			Expect(frames[0].Event).To(Equal("usage"))
			Expect(frames[0].Data).To(Equal(`{"used":1,"limit":2}`))
		})

		It("strips carriage returns from line endings", func() {
			var d Decoder
			frames := d.Feed([]byte("event: message\r\ndata: \"x\"\r\n\n"))
			Expect(frames).To(HaveLen(1))
			Expect(frames[0].Event).To(Equal("message"))
			Expect(frames[0].Data).To(Equal(`"x"`))
		})

		It("surfaces an end frame without data", func() {
			var d Decoder
			frames := d.Feed([]byte("event: end\n\n"))
			Expect(frames).To(HaveLen(1))
			Expect(frames[0].Name()).To(Equal("end"))
			Expect(frames[0].HasData).To(BeFalse())
		})

		It("surfaces unknown event names", func() {
			var d Decoder
			frames := d.Feed([]byte("event: heartbeat\ndata: 1\n\n"))
			Expect(frames).To(HaveLen(1))
			Expect(frames[0].Name()).To(Equal("heartbeat"))
		})

		It("defaults the event name to message", func() {
			var d Decoder
			frames := d.Feed([]byte("data: \"hi\"\n\n"))
			Expect(frames).To(HaveLen(1))
			Expect(frames[0].Event).To(BeEmpty())
			Expect(frames[0].Name()).To(Equal(DefaultEvent))
		})

		It("joins multiple data lines with a newline", func() {
			var d Decoder
			frames := d.Feed([]byte("event: error\ndata: line one\ndata: line two\n\n"))
			Expect(frames).To(HaveLen(1))
			Expect(frames[0].Data).To(Equal("line one\nline two"))
		})

		It("skips comments and keep-alive blank lines", func() {
			var d Decoder
			frames := d.Feed([]byte(": ping\n\n\n\nevent: end\n\n"))
			Expect(frames).To(HaveLen(1))
			Expect(frames[0].Name()).To(Equal("end"))
		})
	})

	Describe("Flush", func() {
		It("returns nothing on a well-formed stream", func() {
			var d Decoder
			d.Feed([]byte(advisorStream))
			Expect(d.Flush()).To(BeEmpty())
		})

		It("discards an unterminated trailing segment", func() {
			var d Decoder
			Expect(d.Feed([]byte("event: end\n\nevent: message\ndata: \"lost\""))).To(HaveLen(1))
			Expect(d.Flush()).To(Equal("event: message\ndata: \"lost\""))
			Expect(d.buffered()).To(BeZero())
		})
	})
})
