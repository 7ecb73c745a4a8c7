package cond_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wyrelab/wyre/cond"
	"github.com/wyrelab/wyre/hdl"
	"github.com/wyrelab/wyre/mem"
)

var _ = Describe("Updater", func() {
	var (
		ctx     *hdl.Context
		updater *cond.Updater
		m       *mem.MemBlock
		sel     *hdl.Signal
		sel2    *hdl.Signal
		addr    *hdl.Signal
		data    *hdl.Signal
		data2   *hdl.Signal
	)

	BeforeEach(func() {
		ctx = hdl.NewContext()
		updater = cond.NewUpdater(ctx)

		var err error
		m, err = mem.MakeBuilder().
			WithContext(ctx).
			WithBitWidth(8).
			WithAddrWidth(4).
			WithConditionalUpdater(updater).
			Build("m")
		Expect(err).ToNot(HaveOccurred())

		sel, err = ctx.Block().NewInput("sel", 1)
		Expect(err).ToNot(HaveOccurred())
		sel2, err = ctx.Block().NewInput("sel2", 1)
		Expect(err).ToNot(HaveOccurred())
		addr, err = ctx.Block().NewInput("addr", 4)
		Expect(err).ToNot(HaveOccurred())
		data, err = ctx.Block().NewInput("data", 8)
		Expect(err).ToNot(HaveOccurred())
		data2, err = ctx.Block().NewInput("data2", 8)
		Expect(err).ToNot(HaveOccurred())
	})

	storeConditional := func(d *hdl.Signal) error {
		cell, err := m.At(addr)
		Expect(err).ToNot(HaveOccurred())
		return cell.StoreConditional(d)
	}

	Context("scoping", func() {
		It("should reject conditional writes outside a scope", func() {
			Expect(storeConditional(data)).To(
				MatchError(cond.ErrNoActiveCondition))
		})

		It("should accept writes inside a When", func() {
			err := updater.When(sel, func() error {
				return storeConditional(data)
			})
			Expect(err).ToNot(HaveOccurred())
		})

		It("should accept writes in nested scopes", func() {
			err := updater.When(sel, func() error {
				return updater.When(sel2, func() error {
					return storeConditional(data)
				})
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(updater.Finalize()).To(Succeed())
			Expect(m.WritePortCount()).To(Equal(1))
		})

		It("should propagate body errors", func() {
			narrow, err := ctx.Block().NewInput("narrow", 4)
			Expect(err).ToNot(HaveOccurred())

			err = updater.When(sel, func() error {
				return storeConditional(narrow)
			})
			Expect(err).To(MatchError(mem.ErrDataWidthMismatch))
		})

		It("should reject multi-bit guards", func() {
			wide, err := ctx.Block().NewInput("wide", 2)
			Expect(err).ToNot(HaveOccurred())

			err = updater.When(wide, func() error { return nil })
			Expect(err).To(MatchError(cond.ErrBadGuard))
		})

		It("should reject an Otherwise without a When", func() {
			Expect(updater.Otherwise(func() error { return nil })).
				To(HaveOccurred())
		})

		It("should reject a duplicate Otherwise", func() {
			Expect(updater.When(sel, func() error { return nil })).To(Succeed())
			Expect(updater.Otherwise(func() error { return nil })).To(Succeed())
			Expect(updater.Otherwise(func() error { return nil })).
				To(HaveOccurred())
		})

		It("should reject a When after an Otherwise at the same level", func() {
			Expect(updater.When(sel, func() error { return nil })).To(Succeed())
			Expect(updater.Otherwise(func() error { return nil })).To(Succeed())
			Expect(updater.When(sel2, func() error { return nil })).
				To(HaveOccurred())
		})

		It("should allow a fresh Otherwise chain inside a nested level", func() {
			err := updater.When(sel, func() error {
				if err := updater.When(sel2, func() error {
					return storeConditional(data)
				}); err != nil {
					return err
				}
				return updater.Otherwise(func() error {
					return storeConditional(data2)
				})
			})
			Expect(err).ToNot(HaveOccurred())
		})
	})

	Context("arbitration", func() {
		It("should merge sibling branches into one write port", func() {
			err := updater.When(sel, func() error {
				return storeConditional(data)
			})
			Expect(err).ToNot(HaveOccurred())
			err = updater.When(sel2, func() error {
				return storeConditional(data2)
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(updater.Finalize()).To(Succeed())

			Expect(m.WritePortCount()).To(Equal(1))
			node := m.WritePorts()[0]
			Expect(node.Op).To(Equal(hdl.OpMemWrite))
			Expect(node.Args).To(HaveLen(3))
		})

		It("should merge a When/Otherwise pair into one write port", func() {
			err := updater.When(sel, func() error {
				return storeConditional(data)
			})
			Expect(err).ToNot(HaveOccurred())
			err = updater.Otherwise(func() error {
				return storeConditional(data2)
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(updater.Finalize()).To(Succeed())
			Expect(m.WritePortCount()).To(Equal(1))
		})

		It("should keep a single guarded write's signals intact", func() {
			err := updater.When(sel, func() error {
				return storeConditional(data)
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(updater.Finalize()).To(Succeed())

			node := m.WritePorts()[0]
			Expect(node.Args[0]).To(BeIdenticalTo(addr))
			Expect(node.Args[1]).To(BeIdenticalTo(data))
		})

		It("should resolve each target memory separately", func() {
			m2, err := mem.MakeBuilder().
				WithContext(ctx).
				WithBitWidth(8).
				WithAddrWidth(4).
				WithConditionalUpdater(updater).
				Build("m2")
			Expect(err).ToNot(HaveOccurred())

			err = updater.When(sel, func() error {
				if err := storeConditional(data); err != nil {
					return err
				}
				cell, err := m2.At(addr)
				if err != nil {
					return err
				}
				return cell.StoreConditional(data2)
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(updater.Finalize()).To(Succeed())
			Expect(m.WritePortCount()).To(Equal(1))
			Expect(m2.WritePortCount()).To(Equal(1))
		})

		It("should build nothing when no writes were submitted", func() {
			Expect(updater.When(sel, func() error { return nil })).To(Succeed())
			Expect(updater.Finalize()).To(Succeed())
			Expect(m.WritePortCount()).To(Equal(0))
		})
	})

	Context("lifecycle", func() {
		It("should refuse reuse after Finalize", func() {
			Expect(updater.Finalize()).To(Succeed())

			Expect(updater.Finalize()).To(MatchError(cond.ErrFinalized))
			Expect(updater.When(sel, func() error { return nil })).To(
				MatchError(cond.ErrFinalized))
			Expect(updater.Otherwise(func() error { return nil })).To(
				MatchError(cond.ErrFinalized))
			Expect(storeConditional(data)).To(MatchError(cond.ErrFinalized))
		})
	})
})
