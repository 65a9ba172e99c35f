package mem_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/csim/mem"
)

var _ = Describe("Storage", func() {
	var storage *mem.Storage

	BeforeEach(func() {
		storage = mem.NewStorage(1 << 20)
	})

	It("should read back what was written", func() {
		data := []byte{1, 2, 3, 4}
		Expect(storage.Write(0x40, data)).To(Succeed())

		read, err := storage.Read(0x40, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(read).To(Equal(data))
	})

	It("should read zero from untouched bytes", func() {
		read, err := storage.Read(0x1000, 8)
		Expect(err).NotTo(HaveOccurred())
		Expect(read).To(Equal(make([]byte, 8)))
	})

	It("should access data across unit boundaries", func() {
		data := make([]byte, 16)
		for i := range data {
			data[i] = byte(i + 1)
		}

		Expect(storage.Write(4090, data)).To(Succeed())

		read, err := storage.Read(4090, 16)
		Expect(err).NotTo(HaveOccurred())
		Expect(read).To(Equal(data))
	})

	It("should reject access beyond the capacity", func() {
		_, err := storage.Read(1<<20, 4)
		Expect(err).To(HaveOccurred())

		Expect(storage.Write(1<<20, []byte{1})).NotTo(Succeed())
	})
})

var _ = Describe("CapacityRecorder", func() {
	It("should accumulate across instances", func() {
		r := mem.NewCapacityRecorder()

		r.AddDataBytes(1024)
		r.AddDataBytes(2048)
		r.AddTagBytes(112)
		r.AddTagBytes(224)

		Expect(r.DataBytes()).To(Equal(uint64(3072)))
		Expect(r.TagBytes()).To(Equal(uint64(336)))
	})
})
