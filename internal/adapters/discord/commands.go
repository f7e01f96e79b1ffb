package discord

import "github.com/bwmarrin/discordgo"

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "times",
		Description: "Top de tiempo en el canal de cámaras",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "top",
			Description: "Cuántos mostrar (por defecto 10)",
		}},
	},
	{
		Name:        "stats",
		Description: "Estadísticas del canal: tiempos, comandos e infracciones",
	},
	{
		Name:        "timeouts",
		Description: "Timeouts activos y untimeouts recientes",
	},
	{
		Name:        "whois",
		Description: "Entradas, salidas, kicks y bans recientes (admins)",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "horas",
			Description: "Ventana en horas (por defecto 24, máximo 168)",
		}},
	},
	{
		Name:        "rules",
		Description: "Muestra las reglas del canal de cámaras",
	},
	{
		Name:        "modon",
		Description: "Activa la moderación de cámaras (admins)",
	},
	{
		Name:        "modoff",
		Description: "Desactiva la moderación de cámaras (admins)",
	},
	{
		Name:        "hush",
		Description: "Encender la cámara deja de des-mutear (admins)",
	},
	{
		Name:        "rhush",
		Description: "Quita el hush y des-mutea a todos (admins)",
	},
	{
		Name:        "rtimeouts",
		Description: "Quita todos los timeouts activos (admins)",
	},
	{
		Name:        "clearstats",
		Description: "Reinicia todas las estadísticas (admins)",
	},
	{
		Name:        "resetviolations",
		Description: "Pone en cero las infracciones de un usuario (admins)",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a perdonar",
			Required:    true,
		}},
	},
}
