// Package notify emits SNMP traps for meter events.
//
// Embedded meters are commonly supervised by an NMS; the daemon raises a
// trap when a minute counter wraps (pulse rate too high for 8-bit minute
// resolution) and when a month closes. Notification is fire-and-forget:
// a failed send is logged and dropped, never retried, and never affects
// counting.
package notify

import (
	"fmt"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/qpulse/pulsemeter/internal/logging"
)

var log = logging.Component("notify")

// Trap OIDs under a private enterprise arc.
const (
	oidBase          = ".1.3.6.1.4.1.55712.1"
	OIDOverflowTrap  = oidBase + ".0.1"
	OIDMonthEndTrap  = oidBase + ".0.2"
	oidChannelIndex  = oidBase + ".1.1"
	oidMonthExported = oidBase + ".1.2"
)

// Config holds trap destination settings.
type Config struct {
	// Target is the NMS host. Empty disables the sender.
	Target    string
	Port      uint16
	Community string
	Timeout   time.Duration
}

// TrapSender sends v2c traps to a single destination.
type TrapSender struct {
	cfg Config
}

// NewTrapSender creates a TrapSender. Returns nil if no target is
// configured; a nil *TrapSender is safe to call and does nothing.
func NewTrapSender(cfg Config) *TrapSender {
	if cfg.Target == "" {
		return nil
	}
	return &TrapSender{cfg: cfg}
}

// Overflow raises the minute-counter-wrap trap for a channel.
func (t *TrapSender) Overflow(channel int) {
	if t == nil {
		return
	}
	t.send(OIDOverflowTrap, []gosnmp.SnmpPDU{
		{Name: oidChannelIndex, Type: gosnmp.Integer, Value: channel},
	})
}

// MonthEnd raises the month-closed trap, carrying the export path.
func (t *TrapSender) MonthEnd(year, month int, exportPath string) {
	if t == nil {
		return
	}
	t.send(OIDMonthEndTrap, []gosnmp.SnmpPDU{
		{Name: oidMonthExported, Type: gosnmp.OctetString,
			Value: fmt.Sprintf("%04d-%02d %s", year, month+1, exportPath)},
	})
}

func (t *TrapSender) send(trapOID string, vars []gosnmp.SnmpPDU) {
	snmp := &gosnmp.GoSNMP{
		Target:    t.cfg.Target,
		Port:      t.cfg.Port,
		Community: t.cfg.Community,
		Version:   gosnmp.Version2c,
		Timeout:   t.cfg.Timeout,
		Retries:   0,
	}

	if err := snmp.Connect(); err != nil {
		log.Warn("trap connect failed", "target", t.cfg.Target, "error", err)
		return
	}
	defer snmp.Conn.Close()

	pdus := append([]gosnmp.SnmpPDU{
		{Name: ".1.3.6.1.6.3.1.1.4.1.0", Type: gosnmp.ObjectIdentifier, Value: trapOID},
	}, vars...)

	if _, err := snmp.SendTrap(gosnmp.SnmpTrap{Variables: pdus}); err != nil {
		log.Warn("trap send failed", "oid", trapOID, "error", err)
		return
	}
	log.Debug("trap sent", "oid", trapOID)
}
